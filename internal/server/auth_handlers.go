package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wanderlust-dev/wanderlust/internal/auth"
	"github.com/wanderlust-dev/wanderlust/internal/models"
)

// RegisterRequest represents a sign-up request
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest carries the profile fields to change; omitted fields are kept
type UpdateProfileRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email  *string `json:"email" validate:"omitempty,email"`
	Avatar *string `json:"avatar" validate:"omitempty,url"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

// AuthResponse is returned by every endpoint that issues a token
type AuthResponse struct {
	Token string      `json:"token,omitempty"`
	User  *UserDetail `json:"user"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	IsVerified     bool      `json:"is_verified"`
	Avatar         string    `json:"avatar,omitempty"`
	SocialProvider string    `json:"social_provider,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toUserDetail(u *models.User) *UserDetail {
	return &UserDetail{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		IsVerified:     u.IsVerified,
		Avatar:         u.Avatar,
		SocialProvider: u.SocialProvider,
		CreatedAt:      u.CreatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// issueToken signs a fresh first-party token and writes the auth response
func (s *Server) issueToken(c *gin.Context, status int, message string, user *models.User) {
	token, _, err := s.issuer.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		respondFail(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	respondOK(c, status, message, AuthResponse{Token: token, User: toUserDetail(user)})
}

// currentUser loads the user behind the request session, writing an error response when it cannot
func (s *Server) currentUser(c *gin.Context) (*auth.SessionData, *models.User, bool) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		respondFail(c, http.StatusUnauthorized, "Unauthorized")
		return nil, nil, false
	}

	var user models.User
	if err := s.db.Where("id = ?", sessionData.UserID).First(&user).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return nil, nil, false
	}
	return sessionData, &user, true
}

// @Summary Register
// @Description Create an account with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Register request"
// @Success 201 {object} Envelope
// @Failure 409 {object} Envelope
// @Router /api/auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if !s.bindJSON(c, &req) {
		return
	}
	email := normalizeEmail(req.Email)

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check existing user")
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if count > 0 {
		respondFail(c, http.StatusConflict, "User already exists with this email")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		respondFail(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	}
	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		respondFail(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User registered")
	s.issueToken(c, http.StatusCreated, "Registration successful", user)
}

// @Summary Login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} Envelope
// @Failure 401 {object} Envelope
// @Router /api/auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if !s.bindJSON(c, &req) {
		return
	}

	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondFail(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Clerk-only accounts have no password to check against
	if user.PasswordHash == "" || auth.VerifyPassword(req.Password, user.PasswordHash) != nil {
		respondFail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User logged in")
	s.issueToken(c, http.StatusOK, "Login successful", &user)
}

// logout revokes the presented first-party token. Clerk sessions end at Clerk.
func (s *Server) logout(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		respondFail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if sessionData.AuthMethod == auth.MethodJWT && sessionData.TokenID != "" {
		revoked := &models.RevokedToken{JTI: sessionData.TokenID, ExpiresAt: sessionData.ExpiresAt}
		if err := s.db.Create(revoked).Error; err != nil {
			s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to revoke token")
			respondFail(c, http.StatusInternalServerError, "Failed to log out")
			return
		}
	}

	s.logger.Info().Str("user_id", sessionData.UserID).Msg("User logged out")
	respondOK(c, http.StatusOK, "Logged out", nil)
}

// @Summary Get current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope
// @Router /api/auth/me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	_, user, ok := s.currentUser(c)
	if !ok {
		return
	}
	respondOK(c, http.StatusOK, "", toUserDetail(user))
}

func (s *Server) updateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if !s.bindJSON(c, &req) {
		return
	}
	_, user, ok := s.currentUser(c)
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != user.Email {
			var count int64
			if err := s.db.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&count).Error; err != nil {
				s.logger.Error().Err(err).Msg("Failed to check email availability")
				respondFail(c, http.StatusInternalServerError, "Internal server error")
				return
			}
			if count > 0 {
				respondFail(c, http.StatusConflict, "Email is already in use")
				return
			}
			updates["email"] = email
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update profile")
			respondFail(c, http.StatusInternalServerError, "Failed to update profile")
			return
		}
		if err := models.FindByID(s.db, user.ID, user); err != nil {
			s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to reload user")
			respondFail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	s.logger.Info().Str("user_id", user.ID).Int("fields", len(updates)).Msg("Profile updated")
	respondOK(c, http.StatusOK, "Profile updated", toUserDetail(user))
}

func (s *Server) changePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !s.bindJSON(c, &req) {
		return
	}
	_, user, ok := s.currentUser(c)
	if !ok {
		return
	}

	if user.PasswordHash == "" {
		respondFail(c, http.StatusBadRequest, "Password sign-in is not enabled for this account")
		return
	}
	if err := auth.VerifyPassword(req.CurrentPassword, user.PasswordHash); err != nil {
		respondFail(c, http.StatusBadRequest, "Current password is incorrect")
		return
	}

	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		respondFail(c, http.StatusInternalServerError, "Failed to change password")
		return
	}
	if err := s.db.Model(user).Update("password_hash", passwordHash).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to store password")
		respondFail(c, http.StatusInternalServerError, "Failed to change password")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("Password changed")
	respondOK(c, http.StatusOK, "Password changed successfully", nil)
}

// refreshToken swaps a valid first-party token for a new one and revokes the old
func (s *Server) refreshToken(c *gin.Context) {
	sessionData, user, ok := s.currentUser(c)
	if !ok {
		return
	}
	if sessionData.AuthMethod != auth.MethodJWT {
		respondFail(c, http.StatusBadRequest, "Only password sessions can be refreshed")
		return
	}

	revoked := &models.RevokedToken{JTI: sessionData.TokenID, ExpiresAt: sessionData.ExpiresAt}
	if err := s.db.Create(revoked).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to revoke previous token")
		respondFail(c, http.StatusInternalServerError, "Failed to refresh token")
		return
	}

	s.issueToken(c, http.StatusOK, "Token refreshed", user)
}

var errAdminExists = errors.New("admin exists")

// makeAdmin promotes the caller. It only succeeds while the site has no admin yet;
// afterwards admins grant the role through /api/admin/users/:id/role.
func (s *Server) makeAdmin(c *gin.Context) {
	sessionData, user, ok := s.currentUser(c)
	if !ok {
		return
	}

	if user.IsAdmin() {
		respondOK(c, http.StatusOK, "Already an admin", AuthResponse{User: toUserDetail(user)})
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var admins int64
		if err := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
			return err
		}
		if admins > 0 {
			return errAdminExists
		}
		return tx.Model(user).Update("role", models.RoleAdmin).Error
	})
	if errors.Is(err, errAdminExists) {
		respondFail(c, http.StatusForbidden, "An administrator already exists. Ask an admin to grant access.")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to promote user")
		respondFail(c, http.StatusInternalServerError, "Failed to update role")
		return
	}

	user.Role = models.RoleAdmin
	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("First admin promoted")

	if sessionData.AuthMethod == auth.MethodJWT {
		s.issueToken(c, http.StatusOK, "You are now an admin", user)
		return
	}
	respondOK(c, http.StatusOK, "You are now an admin", AuthResponse{User: toUserDetail(user)})
}
