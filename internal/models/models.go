package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account that signs in with email/password, Clerk, or both.
// Clerk-only accounts have an empty PasswordHash.
type User struct {
	BaseModel
	Name           string    `json:"name"`
	Email          string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash   string    `json:"-"`
	Role           string    `json:"role" gorm:"not null;default:user"`
	IsVerified     bool      `json:"is_verified" gorm:"not null;default:false"`
	Avatar         string    `json:"avatar"`
	ClerkID        *string   `json:"-" gorm:"uniqueIndex"`
	SocialProvider string    `json:"social_provider"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// RevokedToken records a logged-out first-party token until it would have expired anyway
type RevokedToken struct {
	BaseModel
	JTI       string    `json:"jti" gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"`
}

// GalleryItem is an uploaded photo shown on the gallery page
type GalleryItem struct {
	BaseModel
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	Category    string    `json:"category" gorm:"index"`
	ImageURL    string    `json:"image_url" gorm:"not null"`
	FileName    string    `json:"-"`
	UploadedBy  string    `json:"uploaded_by"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

const (
	MessageUnread  = "unread"
	MessageRead    = "read"
	MessageReplied = "replied"
)

// Message is a "Get In Touch" contact form submission
type Message struct {
	BaseModel
	Name       string     `json:"name" gorm:"not null"`
	Email      string     `json:"email" gorm:"not null"`
	Phone      string     `json:"phone"`
	Subject    string     `json:"subject"`
	Message    string     `json:"message" gorm:"type:text;not null"`
	Status     string     `json:"status" gorm:"index;not null;default:unread"`
	NotifiedAt *time.Time `json:"notified_at"`
}

// ValidMessageStatus reports whether s is a known message status
func ValidMessageStatus(s string) bool {
	return s == MessageUnread || s == MessageRead || s == MessageReplied
}

// SiteSettings is a singleton row holding the public site configuration
type SiteSettings struct {
	BaseModel
	SiteName     string    `json:"site_name"`
	Tagline      string    `json:"tagline"`
	ContactEmail string    `json:"contact_email"`
	ContactPhone string    `json:"contact_phone"`
	Address      string    `json:"address"`
	FacebookURL  string    `json:"facebook_url"`
	InstagramURL string    `json:"instagram_url"`
	TwitterURL   string    `json:"twitter_url"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// DefaultSiteSettings is returned before an admin has saved any settings
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		SiteName:     "Wanderlust Travels",
		Tagline:      "Explore the world with us",
		ContactEmail: "info@wanderlust.com",
	}
}

// TourType groups packages (adventure, honeymoon, pilgrimage ...)
type TourType struct {
	BaseModel
	Name        string    `json:"name" gorm:"uniqueIndex;not null"`
	Slug        string    `json:"slug" gorm:"uniqueIndex;not null"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	IsActive    bool      `json:"is_active" gorm:"not null"`
	SortOrder   int       `json:"sort_order" gorm:"not null;default:0"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Package is a bookable travel package
type Package struct {
	BaseModel
	Title        string    `json:"title" gorm:"not null"`
	Slug         string    `json:"slug" gorm:"uniqueIndex;not null"`
	TourTypeID   *string   `json:"tour_type_id" gorm:"index"`
	Destination  string    `json:"destination"`
	Description  string    `json:"description" gorm:"type:text"`
	PriceCents   int64     `json:"price_cents" gorm:"not null;default:0"`
	DurationDays int       `json:"duration_days" gorm:"not null;default:1"`
	ImageURL     string    `json:"image_url"`
	IsFeatured   bool      `json:"is_featured" gorm:"not null;default:false"`
	IsActive     bool      `json:"is_active" gorm:"not null"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	TourType *TourType `json:"tour_type,omitempty" gorm:"foreignKey:TourTypeID;constraint:OnDelete:SET NULL"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&User{}, &RevokedToken{}, &GalleryItem{}, &Message{},
		&SiteSettings{}, &TourType{}, &Package{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a display name into a URL slug ("Beach & Sun!" -> "beach-sun")
func Slugify(s string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(slug, "-")
}
