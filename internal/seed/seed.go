// Package seed loads catalogue data (site settings, tour types, packages)
// from a YAML file. Applying the same file twice leaves the database unchanged.
package seed

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/wanderlust-dev/wanderlust/internal/models"
)

// File is the YAML document layout
type File struct {
	SiteSettings *SiteSettings `yaml:"site_settings"`
	TourTypes    []TourType    `yaml:"tour_types"`
	Packages     []Package     `yaml:"packages"`
}

type SiteSettings struct {
	SiteName     string `yaml:"site_name"`
	Tagline      string `yaml:"tagline"`
	ContactEmail string `yaml:"contact_email"`
	ContactPhone string `yaml:"contact_phone"`
	Address      string `yaml:"address"`
	FacebookURL  string `yaml:"facebook_url"`
	InstagramURL string `yaml:"instagram_url"`
	TwitterURL   string `yaml:"twitter_url"`
}

type TourType struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
	SortOrder   int    `yaml:"sort_order"`
	Inactive    bool   `yaml:"inactive"`
}

type Package struct {
	Title        string `yaml:"title"`
	Slug         string `yaml:"slug"`
	TourType     string `yaml:"tour_type"` // tour type slug
	Destination  string `yaml:"destination"`
	Description  string `yaml:"description"`
	PriceCents   int64  `yaml:"price_cents"`
	DurationDays int    `yaml:"duration_days"`
	ImageURL     string `yaml:"image_url"`
	Featured     bool   `yaml:"featured"`
	Inactive     bool   `yaml:"inactive"`
}

// Result counts what Apply changed
type Result struct {
	SettingsSaved    bool
	TourTypesCreated int
	TourTypesUpdated int
	PackagesCreated  int
	PackagesUpdated  int
}

// Load parses a seed file from disk
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a seed document, rejecting unknown keys
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i := range file.TourTypes {
		tt := &file.TourTypes[i]
		if tt.Name == "" {
			return nil, fmt.Errorf("tour_types[%d]: name is required", i)
		}
		if tt.Slug == "" {
			tt.Slug = models.Slugify(tt.Name)
		}
	}
	for i := range file.Packages {
		p := &file.Packages[i]
		if p.Title == "" {
			return nil, fmt.Errorf("packages[%d]: title is required", i)
		}
		if p.Slug == "" {
			p.Slug = models.Slugify(p.Title)
		}
		if p.DurationDays <= 0 {
			p.DurationDays = 1
		}
	}
	return &file, nil
}

// Apply upserts everything in file inside one transaction. Records are matched by slug.
func Apply(db *gorm.DB, file *File) (*Result, error) {
	res := &Result{}
	err := db.Transaction(func(tx *gorm.DB) error {
		if file.SiteSettings != nil {
			if err := applySettings(tx, file.SiteSettings); err != nil {
				return err
			}
			res.SettingsSaved = true
		}

		tourTypeIDs := map[string]string{}
		for _, tt := range file.TourTypes {
			id, created, err := applyTourType(tx, tt)
			if err != nil {
				return fmt.Errorf("tour type %q: %w", tt.Slug, err)
			}
			tourTypeIDs[tt.Slug] = id
			if created {
				res.TourTypesCreated++
			} else {
				res.TourTypesUpdated++
			}
		}

		for _, p := range file.Packages {
			created, err := applyPackage(tx, p, tourTypeIDs)
			if err != nil {
				return fmt.Errorf("package %q: %w", p.Slug, err)
			}
			if created {
				res.PackagesCreated++
			} else {
				res.PackagesUpdated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func applySettings(tx *gorm.DB, s *SiteSettings) error {
	var settings models.SiteSettings
	if err := tx.Order("created_at ASC").First(&settings).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	settings.SiteName = s.SiteName
	settings.Tagline = s.Tagline
	settings.ContactEmail = s.ContactEmail
	settings.ContactPhone = s.ContactPhone
	settings.Address = s.Address
	settings.FacebookURL = s.FacebookURL
	settings.InstagramURL = s.InstagramURL
	settings.TwitterURL = s.TwitterURL
	return tx.Save(&settings).Error
}

func applyTourType(tx *gorm.DB, in TourType) (string, bool, error) {
	var tt models.TourType
	err := tx.Where("slug = ?", in.Slug).First(&tt).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, err
	}
	created := errors.Is(err, gorm.ErrRecordNotFound)

	tt.Name = in.Name
	tt.Slug = in.Slug
	tt.Description = in.Description
	tt.Icon = in.Icon
	tt.SortOrder = in.SortOrder
	tt.IsActive = !in.Inactive
	if err := tx.Save(&tt).Error; err != nil {
		return "", false, err
	}
	return tt.ID, created, nil
}

func applyPackage(tx *gorm.DB, in Package, tourTypeIDs map[string]string) (bool, error) {
	var tourTypeID *string
	if in.TourType != "" {
		id, ok := tourTypeIDs[in.TourType]
		if !ok {
			var tt models.TourType
			if err := tx.Where("slug = ?", in.TourType).First(&tt).Error; err != nil {
				return false, fmt.Errorf("unknown tour type %q", in.TourType)
			}
			id = tt.ID
		}
		tourTypeID = &id
	}

	var pkg models.Package
	err := tx.Where("slug = ?", in.Slug).First(&pkg).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	created := errors.Is(err, gorm.ErrRecordNotFound)

	pkg.Title = in.Title
	pkg.Slug = in.Slug
	pkg.TourTypeID = tourTypeID
	pkg.Destination = in.Destination
	pkg.Description = in.Description
	pkg.PriceCents = in.PriceCents
	pkg.DurationDays = in.DurationDays
	pkg.ImageURL = in.ImageURL
	pkg.IsFeatured = in.Featured
	pkg.IsActive = !in.Inactive
	return created, tx.Omit("TourType").Save(&pkg).Error
}
