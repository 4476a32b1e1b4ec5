package auth

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	MethodJWT   = "jwt"
	MethodClerk = "clerk"
)

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	AuthMethod string    `json:"auth_method"` // "jwt", "clerk"
	TokenID    string    `json:"-"`           // jti, empty for clerk sessions
	ExpiresAt  time.Time `json:"-"`
}

// IsAdmin reports whether the session belongs to an admin
func (s *SessionData) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}
