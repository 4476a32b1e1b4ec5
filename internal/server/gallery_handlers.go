package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wanderlust-dev/wanderlust/internal/live"
	"github.com/wanderlust-dev/wanderlust/internal/models"
)

const galleryDir = "gallery"

var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// GalleryForm is the multipart body for a new gallery item; the file goes in "image"
type GalleryForm struct {
	Title       string `form:"title" validate:"required,max=200"`
	Description string `form:"description" validate:"max=2000"`
	Category    string `form:"category" validate:"max=50"`
}

// UpdateGalleryRequest edits gallery metadata; the image itself is immutable
type UpdateGalleryRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Category    *string `json:"category" validate:"omitempty,max=50"`
}

func (s *Server) findGalleryItem(c *gin.Context) (*models.GalleryItem, bool) {
	var item models.GalleryItem
	if err := models.FindByID(s.db, c.Param("id"), &item); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondFail(c, http.StatusNotFound, "Gallery item not found")
			return nil, false
		}
		s.logger.Error().Err(err).Msg("Failed to find gallery item")
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return &item, true
}

// @Summary List gallery items
// @Tags gallery
// @Produce json
// @Param category query string false "Category filter"
// @Param q query string false "Title contains"
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 12, max 100)"
// @Success 200 {object} Envelope
// @Router /api/gallery [get]
func (s *Server) listGallery(c *gin.Context) {
	query := s.db.Model(&models.GalleryItem{})
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if q := c.Query("q"); q != "" {
		query = query.Where("title LIKE ?", "%"+q+"%")
	}

	items := []models.GalleryItem{}
	pagination, err := paginate(c, query, "created_at DESC", &items)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list gallery")
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondList(c, items, pagination)
}

func (s *Server) getGalleryItem(c *gin.Context) {
	item, ok := s.findGalleryItem(c)
	if !ok {
		return
	}
	respondOK(c, http.StatusOK, "", item)
}

// @Summary Upload gallery item
// @Tags gallery
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image file"
// @Param title formData string true "Title"
// @Success 201 {object} Envelope
// @Router /api/gallery [post]
func (s *Server) createGalleryItem(c *gin.Context) {
	var form GalleryForm
	if err := c.ShouldBind(&form); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid form data")
		return
	}
	if err := s.validator.Struct(&form); err != nil {
		respondFail(c, http.StatusBadRequest, validationMessage(err))
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "Image file is required")
		return
	}

	maxBytes := s.config.Uploads.MaxSizeMB << 20
	if file.Size > maxBytes {
		respondFail(c, http.StatusBadRequest, fmt.Sprintf("Image must be smaller than %d MB", s.config.Uploads.MaxSizeMB))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExt[ext] {
		respondFail(c, http.StatusBadRequest, "Image must be a JPG, PNG, WEBP or GIF file")
		return
	}

	fileName := uuid.NewString() + ext
	dst := filepath.Join(s.config.Uploads.Dir, galleryDir, fileName)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		s.logger.Error().Err(err).Str("path", dst).Msg("Failed to save upload")
		respondFail(c, http.StatusInternalServerError, "Failed to save image")
		return
	}

	sessionData, _ := GetSessionData(c)
	item := &models.GalleryItem{
		Title:       strings.TrimSpace(form.Title),
		Description: form.Description,
		Category:    strings.ToLower(strings.TrimSpace(form.Category)),
		ImageURL:    path.Join(s.config.Uploads.PublicPath, galleryDir, fileName),
		FileName:    fileName,
		UploadedBy:  sessionData.UserID,
	}
	if err := s.db.Create(item).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create gallery item")
		s.removeUpload(fileName)
		respondFail(c, http.StatusInternalServerError, "Failed to create gallery item")
		return
	}

	s.logger.Info().Str("gallery_id", item.ID).Str("file", fileName).Int64("bytes", file.Size).Msg("Gallery item uploaded")
	s.hub.Publish(live.EventGalleryCreated, item)
	respondOK(c, http.StatusCreated, "Image uploaded", item)
}

func (s *Server) updateGalleryItem(c *gin.Context) {
	var req UpdateGalleryRequest
	if !s.bindJSON(c, &req) {
		return
	}
	item, ok := s.findGalleryItem(c)
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = strings.ToLower(strings.TrimSpace(*req.Category))
	}

	if len(updates) > 0 {
		if err := s.db.Model(item).Updates(updates).Error; err != nil {
			s.logger.Error().Err(err).Str("gallery_id", item.ID).Msg("Failed to update gallery item")
			respondFail(c, http.StatusInternalServerError, "Failed to update gallery item")
			return
		}
		if err := models.FindByID(s.db, item.ID, item); err != nil {
			respondFail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	respondOK(c, http.StatusOK, "Gallery item updated", item)
}

func (s *Server) deleteGalleryItem(c *gin.Context) {
	item, ok := s.findGalleryItem(c)
	if !ok {
		return
	}

	if err := s.db.Delete(item).Error; err != nil {
		s.logger.Error().Err(err).Str("gallery_id", item.ID).Msg("Failed to delete gallery item")
		respondFail(c, http.StatusInternalServerError, "Failed to delete gallery item")
		return
	}
	s.removeUpload(item.FileName)

	s.logger.Info().Str("gallery_id", item.ID).Msg("Gallery item deleted")
	s.hub.Publish(live.EventGalleryDeleted, gin.H{"id": item.ID})
	respondOK(c, http.StatusOK, "Gallery item deleted", gin.H{"id": item.ID})
}

func (s *Server) removeUpload(fileName string) {
	if fileName == "" {
		return
	}
	p := filepath.Join(s.config.Uploads.Dir, galleryDir, filepath.Base(fileName))
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		s.logger.Warn().Err(err).Str("path", p).Msg("Failed to remove uploaded file")
	}
}
