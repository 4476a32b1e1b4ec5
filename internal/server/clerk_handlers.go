package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	svix "github.com/svix/svix-webhooks/go"
	"gorm.io/gorm"

	"github.com/wanderlust-dev/wanderlust/internal/clerkauth"
	"github.com/wanderlust-dev/wanderlust/internal/models"
)

// ClerkWebhookPayload is the envelope of every Clerk webhook event
type ClerkWebhookPayload struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// syncClerkUser creates or refreshes the local mirror of a Clerk user.
// An existing password account with the same email is linked rather than
// duplicated, but only when Clerk has verified that email.
func (s *Server) syncClerkUser(ctx context.Context, ident clerkauth.Identity) (*models.User, error) {
	if ident.Email == "" {
		return nil, clerkauth.ErrNoEmail
	}
	db := s.db.WithContext(ctx)
	email := normalizeEmail(ident.Email)

	var user models.User
	err := db.Where("clerk_id = ?", ident.ID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = db.Where("email = ?", email).First(&user).Error
		if err == nil && !ident.IsVerified {
			s.logger.Warn().Str("user_id", user.ID).Str("clerk_id", ident.ID).Msg("Refusing to link Clerk user with an unverified email")
			return nil, clerkauth.ErrEmailNotVerified
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		clerkID := ident.ID
		user = models.User{
			Name:           ident.Name,
			Email:          email,
			Role:           models.RoleUser,
			IsVerified:     ident.IsVerified,
			Avatar:         ident.Avatar,
			ClerkID:        &clerkID,
			SocialProvider: ident.SocialProvider,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, err
		}
		s.logger.Info().Str("user_id", user.ID).Str("clerk_id", ident.ID).Msg("Clerk user mirrored")
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"clerk_id":        ident.ID,
		"is_verified":     ident.IsVerified,
		"avatar":          ident.Avatar,
		"social_provider": ident.SocialProvider,
	}
	if ident.Name != "" {
		updates["name"] = ident.Name
	}
	if email != user.Email {
		var taken int64
		if err := db.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&taken).Error; err != nil {
			return nil, err
		}
		if taken == 0 {
			updates["email"] = email
		}
	}
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := models.FindByID(db, user.ID, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// removeClerkUser deletes a Clerk-only mirror, or unlinks Clerk from a password account
func (s *Server) removeClerkUser(clerkID string) error {
	var user models.User
	if err := s.db.Where("clerk_id = ?", clerkID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if user.PasswordHash == "" {
		return s.db.Delete(&user).Error
	}
	return s.db.Model(&models.User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{"clerk_id": nil, "social_provider": ""}).Error
}

// @Summary Clerk webhook
// @Description Receives user.created, user.updated and user.deleted events
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} Envelope
// @Failure 401 {object} Envelope
// @Router /webhook/clerk [post]
func (s *Server) clerkWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondFail(c, http.StatusBadRequest, "Failed to read request body")
		return
	}

	// Unsigned events are never applied
	secret := s.config.Auth.ClerkWebhookSecret
	if secret == "" {
		s.logger.Warn().Msg("CLERK_WEBHOOK_SECRET not set - rejecting Clerk webhook")
		respondFail(c, http.StatusServiceUnavailable, "Webhook not configured")
		return
	}

	wh, err := svix.NewWebhook(secret)
	if err != nil {
		s.logger.Error().Err(err).Msg("Invalid CLERK_WEBHOOK_SECRET")
		respondFail(c, http.StatusInternalServerError, "Webhook misconfigured")
		return
	}

	headers := http.Header{}
	headers.Set("svix-id", c.GetHeader("svix-id"))
	headers.Set("svix-timestamp", c.GetHeader("svix-timestamp"))
	headers.Set("svix-signature", c.GetHeader("svix-signature"))

	if err := wh.Verify(body, headers); err != nil {
		s.logger.Warn().Err(err).Msg("Clerk webhook signature rejected")
		respondFail(c, http.StatusUnauthorized, "Invalid webhook signature")
		return
	}

	var payload ClerkWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	log := s.logger.With().Str("event", payload.Type).Logger()

	switch payload.Type {
	case "user.created", "user.updated":
		ident, err := clerkauth.FromWebhook(payload.Data)
		if err != nil {
			log.Warn().Err(err).Msg("Skipping Clerk user event")
			break
		}
		_, err = s.syncClerkUser(c.Request.Context(), ident)
		if errors.Is(err, clerkauth.ErrEmailNotVerified) {
			log.Warn().Str("clerk_id", ident.ID).Msg("Skipping Clerk user with an unverified email")
			break
		}
		if err != nil {
			log.Error().Err(err).Str("clerk_id", ident.ID).Msg("Failed to sync Clerk user")
			respondFail(c, http.StatusInternalServerError, "Failed to sync user")
			return
		}
	case "user.deleted":
		var deleted struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(payload.Data, &deleted); err != nil || deleted.ID == "" {
			respondFail(c, http.StatusBadRequest, "Invalid user.deleted payload")
			return
		}
		if err := s.removeClerkUser(deleted.ID); err != nil {
			log.Error().Err(err).Str("clerk_id", deleted.ID).Msg("Failed to remove Clerk user")
			respondFail(c, http.StatusInternalServerError, "Failed to remove user")
			return
		}
	default:
		log.Debug().Msg("Ignoring Clerk event")
	}

	respondOK(c, http.StatusOK, "Webhook received", nil)
}

// clerkIdentity verifies a Clerk session token and returns the Clerk profile,
// mirroring the user locally on the way
func (s *Server) clerkIdentity(c *gin.Context) {
	if s.clerk == nil {
		respondFail(c, http.StatusNotFound, "Clerk sign-in is not configured")
		return
	}

	token, err := extractBearerToken(c.GetHeader("Authorization"))
	if err != nil {
		respondFail(c, http.StatusUnauthorized, "Missing Clerk session token")
		return
	}

	ident, err := s.clerk.Verify(c.Request.Context(), token)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Clerk session rejected")
		respondFail(c, http.StatusUnauthorized, "Invalid or expired Clerk session")
		return
	}

	if _, err := s.syncClerkUser(c.Request.Context(), *ident); err != nil && !errors.Is(err, clerkauth.ErrNoEmail) && !errors.Is(err, clerkauth.ErrEmailNotVerified) {
		s.logger.Error().Err(err).Str("clerk_id", ident.ID).Msg("Failed to sync Clerk user")
	}

	respondOK(c, http.StatusOK, "", ident)
}
