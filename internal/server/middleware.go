package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/wanderlust-dev/wanderlust/internal/auth"
	"github.com/wanderlust-dev/wanderlust/internal/clerkauth"
	"github.com/wanderlust-dev/wanderlust/internal/models"
)

const (
	bearerPrefix = "Bearer "
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenRevoked      = errors.New("token revoked")
	ErrUserNotFound      = errors.New("user not found")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// authenticate resolves a bearer token to a session. First-party tokens are
// tried first; anything else is offered to Clerk when it is configured.
// The role always comes from the stored user, not from token claims.
func (s *Server) authenticate(ctx context.Context, token string) (*auth.SessionData, error) {
	claims, err := s.issuer.ValidateToken(token)
	if err == nil {
		var revoked int64
		if err := s.db.WithContext(ctx).Model(&models.RevokedToken{}).Where("jti = ?", claims.ID).Count(&revoked).Error; err != nil {
			return nil, err
		}
		if revoked > 0 {
			return nil, ErrTokenRevoked
		}

		var user models.User
		if err := s.db.WithContext(ctx).Where("id = ?", claims.UserID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}

		return &auth.SessionData{
			UserID:     user.ID,
			Email:      user.Email,
			Role:       user.Role,
			AuthMethod: auth.MethodJWT,
			TokenID:    claims.ID,
			ExpiresAt:  claims.ExpiresAt.Time,
		}, nil
	}

	if s.clerk == nil {
		return nil, ErrInvalidToken
	}

	ident, err := s.clerk.Verify(ctx, token)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Token rejected by first-party issuer and Clerk")
		return nil, ErrInvalidToken
	}

	user, err := s.syncClerkUser(ctx, *ident)
	if err != nil {
		return nil, err
	}

	return &auth.SessionData{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		AuthMethod: auth.MethodClerk,
	}, nil
}

// JWTAuthMiddleware accepts first-party tokens and Clerk session tokens
func (s *Server) JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			var message string
			switch err {
			case ErrMissingAuthHeader:
				message = "Missing authorization header"
			case ErrInvalidAuthFormat:
				message = "Invalid authorization header format"
			case ErrEmptyToken:
				message = "Empty token"
			}
			respondWithError(c, s.logger, http.StatusUnauthorized, err, message)
			return
		}

		sessionData, err := s.authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenRevoked):
				respondWithError(c, s.logger, http.StatusUnauthorized, err, "Token has been revoked")
			case errors.Is(err, ErrUserNotFound):
				respondWithError(c, s.logger, http.StatusUnauthorized, err, "User not found")
			case errors.Is(err, clerkauth.ErrNoEmail):
				respondWithError(c, s.logger, http.StatusUnauthorized, err, "Clerk account has no email address")
			case errors.Is(err, clerkauth.ErrEmailNotVerified):
				respondWithError(c, s.logger, http.StatusUnauthorized, err, "Verify your email address with Clerk first")
			case errors.Is(err, ErrInvalidToken):
				respondWithError(c, s.logger, http.StatusUnauthorized, err, "Invalid or expired token")
			default:
				s.logger.Error().Err(err).Msg("Failed to authenticate request")
				respondWithError(c, s.logger, http.StatusInternalServerError, err, "Internal server error")
			}
			return
		}

		setSession(c, sessionData)
		c.Next()
	}
}

// AdminOnlyMiddleware ensures the authenticated user is an admin
func AdminOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if !sessionData.IsAdmin() {
			respondWithError(c, log, http.StatusForbidden, errors.New("not admin"), "Admin access required")
			return
		}

		c.Next()
	}
}
