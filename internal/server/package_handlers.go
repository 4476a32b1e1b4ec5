package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wanderlust-dev/wanderlust/internal/live"
	"github.com/wanderlust-dev/wanderlust/internal/models"
)

// CreatePackageRequest creates a travel package; the slug is derived from the title when omitted
type CreatePackageRequest struct {
	Title        string  `json:"title" validate:"required,max=200"`
	Slug         string  `json:"slug" validate:"omitempty,slug"`
	TourTypeID   *string `json:"tour_type_id"`
	Destination  string  `json:"destination" validate:"max=200"`
	Description  string  `json:"description" validate:"max=10000"`
	PriceCents   int64   `json:"price_cents" validate:"gte=0"`
	DurationDays int     `json:"duration_days" validate:"gte=0"`
	ImageURL     string  `json:"image_url" validate:"omitempty,max=500"`
	IsFeatured   bool    `json:"is_featured"`
	IsActive     *bool   `json:"is_active"`
}

// UpdatePackageRequest edits a package; omitted fields are kept
type UpdatePackageRequest struct {
	Title        *string `json:"title" validate:"omitempty,min=1,max=200"`
	Slug         *string `json:"slug" validate:"omitempty,slug"`
	TourTypeID   *string `json:"tour_type_id"`
	Destination  *string `json:"destination" validate:"omitempty,max=200"`
	Description  *string `json:"description" validate:"omitempty,max=10000"`
	PriceCents   *int64  `json:"price_cents" validate:"omitempty,gte=0"`
	DurationDays *int    `json:"duration_days" validate:"omitempty,gte=1"`
	ImageURL     *string `json:"image_url" validate:"omitempty,max=500"`
	IsFeatured   *bool   `json:"is_featured"`
	IsActive     *bool   `json:"is_active"`
}

func (s *Server) findPackageByID(c *gin.Context) (*models.Package, bool) {
	var pkg models.Package
	if err := s.db.Preload("TourType").Where("id = ?", c.Param("id")).First(&pkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondFail(c, http.StatusNotFound, "Package not found")
			return nil, false
		}
		s.logger.Error().Err(err).Msg("Failed to find package")
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return &pkg, true
}

// checkTourType verifies a referenced tour type exists; an empty id clears the reference
func (s *Server) checkTourType(c *gin.Context, id *string) (*string, bool) {
	if id == nil || *id == "" {
		return nil, true
	}
	var tt models.TourType
	if err := models.FindByID(s.db, *id, &tt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondFail(c, http.StatusBadRequest, "Tour type does not exist")
			return nil, false
		}
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return &tt.ID, true
}

// reloadPackage refreshes pkg and its tour type from the database
func (s *Server) reloadPackage(pkg *models.Package) error {
	var fresh models.Package
	if err := s.db.Preload("TourType").Where("id = ?", pkg.ID).First(&fresh).Error; err != nil {
		return err
	}
	*pkg = fresh
	return nil
}

func (s *Server) packageSlugTaken(slug, exceptID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Package{}).Where("slug = ? AND id <> ?", slug, exceptID).Count(&count).Error
	return count > 0, err
}

// @Summary List packages
// @Tags packages
// @Produce json
// @Param tour_type query string false "Tour type id or slug"
// @Param featured query bool false "Only featured packages"
// @Param active query bool false "Filter by active flag"
// @Param q query string false "Title or destination contains"
// @Success 200 {object} Envelope
// @Router /api/packages [get]
func (s *Server) listPackages(c *gin.Context) {
	query := s.db.Model(&models.Package{}).Preload("TourType")

	if tourType := c.Query("tour_type"); tourType != "" {
		query = query.Where("tour_type_id IN (?)",
			s.db.Model(&models.TourType{}).Select("id").Where("id = ? OR slug = ?", tourType, tourType))
	}
	if featured, err := strconv.ParseBool(c.Query("featured")); err == nil {
		query = query.Where("is_featured = ?", featured)
	}
	if active, err := strconv.ParseBool(c.Query("active")); err == nil {
		query = query.Where("is_active = ?", active)
	}
	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("title LIKE ? OR destination LIKE ?", like, like)
	}

	items := []models.Package{}
	pagination, err := paginate(c, query, "is_featured DESC, created_at DESC", &items)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list packages")
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondList(c, items, pagination)
}

// @Summary Get package by slug
// @Tags packages
// @Produce json
// @Param slug path string true "Package slug"
// @Success 200 {object} Envelope
// @Router /api/packages/{slug} [get]
func (s *Server) getPackage(c *gin.Context) {
	var pkg models.Package
	if err := s.db.Preload("TourType").Where("slug = ?", c.Param("slug")).First(&pkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondFail(c, http.StatusNotFound, "Package not found")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find package")
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusOK, "", pkg)
}

func (s *Server) createPackage(c *gin.Context) {
	var req CreatePackageRequest
	if !s.bindJSON(c, &req) {
		return
	}

	tourTypeID, ok := s.checkTourType(c, req.TourTypeID)
	if !ok {
		return
	}

	pkg := &models.Package{
		Title:        strings.TrimSpace(req.Title),
		Slug:         req.Slug,
		TourTypeID:   tourTypeID,
		Destination:  strings.TrimSpace(req.Destination),
		Description:  req.Description,
		PriceCents:   req.PriceCents,
		DurationDays: req.DurationDays,
		ImageURL:     req.ImageURL,
		IsFeatured:   req.IsFeatured,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
	if pkg.Slug == "" {
		pkg.Slug = models.Slugify(pkg.Title)
	}
	if pkg.Slug == "" {
		respondFail(c, http.StatusBadRequest, "Title must contain letters or numbers")
		return
	}
	if pkg.DurationDays == 0 {
		pkg.DurationDays = 1
	}

	taken, err := s.packageSlugTaken(pkg.Slug, "")
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to check package slug")
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if taken {
		respondFail(c, http.StatusConflict, "A package with this slug already exists")
		return
	}

	if err := s.db.Create(pkg).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create package")
		respondFail(c, http.StatusInternalServerError, "Failed to create package")
		return
	}
	if err := s.reloadPackage(pkg); err != nil {
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.logger.Info().Str("package_id", pkg.ID).Str("slug", pkg.Slug).Msg("Package created")
	s.hub.Publish(live.EventPackageUpdated, pkg)
	respondOK(c, http.StatusCreated, "Package created", pkg)
}

func (s *Server) updatePackage(c *gin.Context) {
	var req UpdatePackageRequest
	if !s.bindJSON(c, &req) {
		return
	}
	pkg, ok := s.findPackageByID(c)
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Slug != nil {
		taken, err := s.packageSlugTaken(*req.Slug, pkg.ID)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to check package slug")
			respondFail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		if taken {
			respondFail(c, http.StatusConflict, "A package with this slug already exists")
			return
		}
		updates["slug"] = *req.Slug
	}
	if req.TourTypeID != nil {
		tourTypeID, ok := s.checkTourType(c, req.TourTypeID)
		if !ok {
			return
		}
		updates["tour_type_id"] = tourTypeID
	}
	if req.Destination != nil {
		updates["destination"] = strings.TrimSpace(*req.Destination)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.PriceCents != nil {
		updates["price_cents"] = *req.PriceCents
	}
	if req.DurationDays != nil {
		updates["duration_days"] = *req.DurationDays
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.IsFeatured != nil {
		updates["is_featured"] = *req.IsFeatured
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.Package{}).Where("id = ?", pkg.ID).Updates(updates).Error; err != nil {
			s.logger.Error().Err(err).Str("package_id", pkg.ID).Msg("Failed to update package")
			respondFail(c, http.StatusInternalServerError, "Failed to update package")
			return
		}
		if err := s.reloadPackage(pkg); err != nil {
			respondFail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	s.hub.Publish(live.EventPackageUpdated, pkg)
	respondOK(c, http.StatusOK, "Package updated", pkg)
}

func (s *Server) deletePackage(c *gin.Context) {
	pkg, ok := s.findPackageByID(c)
	if !ok {
		return
	}

	if err := s.db.Where("id = ?", pkg.ID).Delete(&models.Package{}).Error; err != nil {
		s.logger.Error().Err(err).Str("package_id", pkg.ID).Msg("Failed to delete package")
		respondFail(c, http.StatusInternalServerError, "Failed to delete package")
		return
	}

	s.logger.Info().Str("package_id", pkg.ID).Msg("Package deleted")
	respondOK(c, http.StatusOK, "Package deleted", gin.H{"id": pkg.ID})
}
