package session

import (
	"context"

	"github.com/wanderlust-dev/wanderlust/internal/cli/client"
)

// ClerkUser is the third-party identity reshaped into the app's user shape
type ClerkUser struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Avatar         string `json:"avatar"`
	Role           string `json:"role"`
	IsVerified     bool   `json:"is_verified"`
	SocialProvider string `json:"social_provider"`
}

// AsUser converts the provider identity to the user shape guards and commands read
func (u *ClerkUser) AsUser() *client.User {
	if u == nil {
		return nil
	}
	return &client.User{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		IsVerified:     u.IsVerified,
		Avatar:         u.Avatar,
		SocialProvider: u.SocialProvider,
	}
}

// ProviderSession is what an IdentityProvider reports on each poll
type ProviderSession struct {
	SignedIn bool
	User     *ClerkUser
	Token    string
}

// IdentityProvider is a hosted sign-in service
type IdentityProvider interface {
	Session(ctx context.Context) (*ProviderSession, error)
	SignOut(ctx context.Context) error
}
