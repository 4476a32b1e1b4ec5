package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wanderlust-dev/wanderlust/internal/models"
)

// CreateTourTypeRequest creates a tour type; the slug is derived from the name when omitted
type CreateTourTypeRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"omitempty,slug"`
	Description string `json:"description" validate:"max=1000"`
	Icon        string `json:"icon" validate:"max=50"`
	IsActive    *bool  `json:"is_active"`
	SortOrder   int    `json:"sort_order" validate:"gte=0"`
}

// UpdateTourTypeRequest edits a tour type; omitted fields are kept
type UpdateTourTypeRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Slug        *string `json:"slug" validate:"omitempty,slug"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Icon        *string `json:"icon" validate:"omitempty,max=50"`
	IsActive    *bool   `json:"is_active"`
	SortOrder   *int    `json:"sort_order" validate:"omitempty,gte=0"`
}

func (s *Server) findTourType(c *gin.Context) (*models.TourType, bool) {
	var tt models.TourType
	if err := models.FindByID(s.db, c.Param("id"), &tt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondFail(c, http.StatusNotFound, "Tour type not found")
			return nil, false
		}
		s.logger.Error().Err(err).Msg("Failed to find tour type")
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return &tt, true
}

// tourTypeTaken reports whether another tour type already uses name or slug
func (s *Server) tourTypeTaken(name, slug, exceptID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.TourType{}).
		Where("(name = ? OR slug = ?) AND id <> ?", name, slug, exceptID).
		Count(&count).Error
	return count > 0, err
}

// @Summary List tour types
// @Tags tour-types
// @Produce json
// @Param active query bool false "Only active tour types"
// @Success 200 {object} Envelope
// @Router /api/tour-types [get]
func (s *Server) listTourTypes(c *gin.Context) {
	query := s.db.Model(&models.TourType{})
	if active, err := strconv.ParseBool(c.Query("active")); err == nil {
		query = query.Where("is_active = ?", active)
	}

	items := []models.TourType{}
	pagination, err := paginate(c, query, "sort_order ASC, name ASC", &items)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list tour types")
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondList(c, items, pagination)
}

func (s *Server) getTourType(c *gin.Context) {
	tt, ok := s.findTourType(c)
	if !ok {
		return
	}
	respondOK(c, http.StatusOK, "", tt)
}

func (s *Server) createTourType(c *gin.Context) {
	var req CreateTourTypeRequest
	if !s.bindJSON(c, &req) {
		return
	}

	tt := &models.TourType{
		Name:        strings.TrimSpace(req.Name),
		Slug:        req.Slug,
		Description: req.Description,
		Icon:        req.Icon,
		IsActive:    req.IsActive == nil || *req.IsActive,
		SortOrder:   req.SortOrder,
	}
	if tt.Slug == "" {
		tt.Slug = models.Slugify(tt.Name)
	}
	if tt.Slug == "" {
		respondFail(c, http.StatusBadRequest, "Name must contain letters or numbers")
		return
	}

	taken, err := s.tourTypeTaken(tt.Name, tt.Slug, "")
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to check tour type uniqueness")
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if taken {
		respondFail(c, http.StatusConflict, "A tour type with this name already exists")
		return
	}

	if err := s.db.Create(tt).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create tour type")
		respondFail(c, http.StatusInternalServerError, "Failed to create tour type")
		return
	}

	s.logger.Info().Str("tour_type_id", tt.ID).Str("slug", tt.Slug).Msg("Tour type created")
	respondOK(c, http.StatusCreated, "Tour type created", tt)
}

func (s *Server) updateTourType(c *gin.Context) {
	var req UpdateTourTypeRequest
	if !s.bindJSON(c, &req) {
		return
	}
	tt, ok := s.findTourType(c)
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	name, slug := tt.Name, tt.Slug
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		updates["name"] = name
	}
	if req.Slug != nil {
		slug = *req.Slug
		updates["slug"] = slug
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Icon != nil {
		updates["icon"] = *req.Icon
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}

	if req.Name != nil || req.Slug != nil {
		taken, err := s.tourTypeTaken(name, slug, tt.ID)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to check tour type uniqueness")
			respondFail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		if taken {
			respondFail(c, http.StatusConflict, "A tour type with this name already exists")
			return
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(tt).Updates(updates).Error; err != nil {
			s.logger.Error().Err(err).Str("tour_type_id", tt.ID).Msg("Failed to update tour type")
			respondFail(c, http.StatusInternalServerError, "Failed to update tour type")
			return
		}
		if err := models.FindByID(s.db, tt.ID, tt); err != nil {
			respondFail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	respondOK(c, http.StatusOK, "Tour type updated", tt)
}

// deleteTourType removes the tour type; its packages keep existing without one
func (s *Server) deleteTourType(c *gin.Context) {
	tt, ok := s.findTourType(c)
	if !ok {
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Package{}).Where("tour_type_id = ?", tt.ID).Update("tour_type_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(tt).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Str("tour_type_id", tt.ID).Msg("Failed to delete tour type")
		respondFail(c, http.StatusInternalServerError, "Failed to delete tour type")
		return
	}

	s.logger.Info().Str("tour_type_id", tt.ID).Msg("Tour type deleted")
	respondOK(c, http.StatusOK, "Tour type deleted", gin.H{"id": tt.ID})
}
