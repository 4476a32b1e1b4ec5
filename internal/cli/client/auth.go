package client

import (
	"context"
	"net/http"

	"github.com/wanderlust-dev/wanderlust/internal/clerkauth"
)

const RoleAdmin = "admin"

// User is the account returned by the auth endpoints
type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	IsVerified     bool   `json:"is_verified"`
	Avatar         string `json:"avatar,omitempty"`
	SocialProvider string `json:"social_provider,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// IsAdmin reports whether the user carries the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// AuthResponse is returned by every endpoint that issues a token.
// Token is empty when the server kept the caller's existing token.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// ProfileUpdate carries the profile fields to change; nil fields are kept
type ProfileUpdate struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// Register creates an account and returns its first token
func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	payload := map[string]string{"name": name, "email": email, "password": password}
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates the user and returns a JWT token
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	payload := map[string]string{"email": email, "password": password}
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout revokes the current token on the server
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	return err
}

// Me returns the user behind the current token
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	var user User
	if _, err := c.doJSON(ctx, http.MethodPut, "/api/auth/profile", update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	payload := map[string]string{"current_password": current, "new_password": next}
	_, err := c.doJSON(ctx, http.MethodPut, "/api/auth/change-password", payload, nil)
	return err
}

// RefreshToken swaps the current token for a new one
func (c *Client) RefreshToken(ctx context.Context) (*AuthResponse, error) {
	var resp AuthResponse
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh-token", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MakeAdmin promotes the caller while the site has no admin yet
func (c *Client) MakeAdmin(ctx context.Context) (*AuthResponse, error) {
	var resp AuthResponse
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/auth/make-admin", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClerkIdentity asks the server to verify a Clerk session token and return
// the identity behind it. The given token is sent instead of the TokenSource.
func (c *Client) ClerkIdentity(ctx context.Context, sessionToken string) (*clerkauth.Identity, error) {
	var ident clerkauth.Identity
	req := &request{method: http.MethodGet, path: "/api/auth/clerk/identity", token: &sessionToken}
	if _, err := c.send(ctx, req, &ident); err != nil {
		return nil, err
	}
	return &ident, nil
}

// ListUsers returns accounts, admins only
func (c *Client) ListUsers(ctx context.Context, q ListQuery) ([]User, *Pagination, error) {
	return list[User](ctx, c, "/api/admin/users", q)
}

// UpdateUserRole grants or removes the admin role
func (c *Client) UpdateUserRole(ctx context.Context, id, role string) (*User, error) {
	var user User
	payload := map[string]string{"role": role}
	if _, err := c.doJSON(ctx, http.MethodPatch, "/api/admin/users/"+id+"/role", payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
