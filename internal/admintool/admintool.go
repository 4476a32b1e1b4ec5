// Package admintool holds the account maintenance operations behind the makeadmin binary.
package admintool

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/wanderlust-dev/wanderlust/internal/auth"
	"github.com/wanderlust-dev/wanderlust/internal/models"
)

const (
	DefaultAdminEmail    = "admin@wanderlust.com"
	DefaultAdminPassword = "Admin@123"
	DefaultAdminName     = "Administrator"
)

var ErrUserNotFound = errors.New("user not found")

// PromoteResult reports the outcome for one email passed to Promote
type PromoteResult struct {
	Email   string
	Status  string // promoted, already-admin, not-found
	Account *models.User
}

// ListUsers returns every account, admins first
func ListUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	err := db.Order("CASE WHEN role = 'admin' THEN 0 ELSE 1 END, created_at ASC").Find(&users).Error
	return users, err
}

// SeedAdmin creates an admin account, or promotes and resets the password of an existing one.
// It returns true when a new account was created.
func SeedAdmin(db *gorm.DB, name, email, password string) (*models.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, false, fmt.Errorf("email and password are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, false, err
	}

	var user models.User
	err = db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
			IsVerified:   true,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, false, fmt.Errorf("failed to create admin: %w", err)
		}
		return &user, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"role":          models.RoleAdmin,
		"password_hash": hash,
	}).Error; err != nil {
		return nil, false, fmt.Errorf("failed to update admin: %w", err)
	}
	user.Role = models.RoleAdmin
	user.PasswordHash = hash
	return &user, false, nil
}

// Promote grants the admin role to each email. Unknown emails are reported, not fatal.
func Promote(db *gorm.DB, emails ...string) ([]PromoteResult, error) {
	results := make([]PromoteResult, 0, len(emails))
	for _, raw := range emails {
		email := strings.ToLower(strings.TrimSpace(raw))
		res := PromoteResult{Email: email}

		var user models.User
		err := db.Where("email = ?", email).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			res.Status = "not-found"
		case err != nil:
			return results, err
		case user.IsAdmin():
			res.Status = "already-admin"
			res.Account = &user
		default:
			if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("role", models.RoleAdmin).Error; err != nil {
				return results, fmt.Errorf("failed to promote %s: %w", email, err)
			}
			user.Role = models.RoleAdmin
			res.Status = "promoted"
			res.Account = &user
		}
		results = append(results, res)
	}
	return results, nil
}

// Demote returns an admin to the user role, refusing to remove the last admin
func Demote(db *gorm.DB, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if !user.IsAdmin() {
			return nil
		}

		var admins int64
		if err := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
			return err
		}
		if admins <= 1 {
			return fmt.Errorf("%s is the last admin", email)
		}
		user.Role = models.RoleUser
		return tx.Model(&models.User{}).Where("id = ?", user.ID).Update("role", models.RoleUser).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
