package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wanderlust-dev/wanderlust/internal/models"
)

// UpdateRoleRequest sets a user's role
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// @Summary List users
// @Description List all users (admin only)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param q query string false "Name or email contains"
// @Param role query string false "Role filter"
// @Success 200 {object} Envelope
// @Router /api/admin/users [get]
func (s *Server) listUsers(c *gin.Context) {
	query := s.db.Model(&models.User{})
	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", like, like)
	}
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User
	pagination, err := paginate(c, query, "created_at DESC", &users)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	details := make([]*UserDetail, 0, len(users))
	for i := range users {
		details = append(details, toUserDetail(&users[i]))
	}
	respondList(c, details, pagination)
}

var errLastAdmin = errors.New("last admin")

func (s *Server) updateUserRole(c *gin.Context) {
	var req UpdateRoleRequest
	if !s.bindJSON(c, &req) {
		return
	}

	var user models.User
	if err := models.FindByID(s.db, c.Param("id"), &user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondFail(c, http.StatusNotFound, "User not found")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if user.IsAdmin() && req.Role != models.RoleAdmin {
			var admins int64
			if err := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return errLastAdmin
			}
		}
		return tx.Model(&user).Update("role", req.Role).Error
	})
	if errors.Is(err, errLastAdmin) {
		respondFail(c, http.StatusConflict, "Cannot remove the last admin")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update role")
		respondFail(c, http.StatusInternalServerError, "Failed to update role")
		return
	}

	user.Role = req.Role
	s.logger.Info().Str("user_id", user.ID).Str("role", req.Role).Msg("User role updated")
	respondOK(c, http.StatusOK, "Role updated", toUserDetail(&user))
}
