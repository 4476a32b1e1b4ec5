package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wanderlust-dev/wanderlust/internal/models"
)

// UpdateSiteSettingsRequest holds the settings to change; omitted fields are kept
type UpdateSiteSettingsRequest struct {
	SiteName     *string `json:"site_name" validate:"omitempty,min=1,max=100"`
	Tagline      *string `json:"tagline" validate:"omitempty,max=200"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone *string `json:"contact_phone" validate:"omitempty,phone"`
	Address      *string `json:"address" validate:"omitempty,max=300"`
	FacebookURL  *string `json:"facebook_url" validate:"omitempty,url"`
	InstagramURL *string `json:"instagram_url" validate:"omitempty,url"`
	TwitterURL   *string `json:"twitter_url" validate:"omitempty,url"`
}

// loadSiteSettings returns the stored singleton, or the defaults when none was saved
func (s *Server) loadSiteSettings() (models.SiteSettings, error) {
	var settings models.SiteSettings
	err := s.db.Order("created_at ASC").First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultSiteSettings(), nil
	}
	return settings, err
}

// @Summary Get site settings
// @Tags settings
// @Produce json
// @Success 200 {object} Envelope
// @Router /api/site-settings [get]
func (s *Server) getSiteSettings(c *gin.Context) {
	settings, err := s.loadSiteSettings()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load site settings")
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusOK, "", settings)
}

func (s *Server) updateSiteSettings(c *gin.Context) {
	var req UpdateSiteSettingsRequest
	if !s.bindJSON(c, &req) {
		return
	}

	settings, err := s.loadSiteSettings()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load site settings")
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&settings.SiteName, req.SiteName)
	apply(&settings.Tagline, req.Tagline)
	apply(&settings.ContactEmail, req.ContactEmail)
	apply(&settings.ContactPhone, req.ContactPhone)
	apply(&settings.Address, req.Address)
	apply(&settings.FacebookURL, req.FacebookURL)
	apply(&settings.InstagramURL, req.InstagramURL)
	apply(&settings.TwitterURL, req.TwitterURL)

	// Save inserts the singleton on first write (empty ID) and updates it afterwards
	if err := s.db.Save(&settings).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to save site settings")
		respondFail(c, http.StatusInternalServerError, "Failed to save settings")
		return
	}

	s.logger.Info().Str("settings_id", settings.ID).Msg("Site settings updated")
	respondOK(c, http.StatusOK, "Settings saved", settings)
}
