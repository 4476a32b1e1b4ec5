// Package clerkprovider exposes a stored Clerk session as a session.IdentityProvider.
package clerkprovider

import (
	"context"
	"errors"
	"fmt"

	"github.com/wanderlust-dev/wanderlust/internal/clerkauth"
	"github.com/wanderlust-dev/wanderlust/internal/cli/client"
	"github.com/wanderlust-dev/wanderlust/internal/cli/session"
	"github.com/wanderlust-dev/wanderlust/internal/cli/storage"
)

// Clerk users never carry an app role of their own
const clerkRole = "user"

// Provider reads the Clerk session token saved under the clerk_session key
// and verifies it on every poll.
type Provider struct {
	store    storage.Store
	verifier clerkauth.Verifier
}

// New returns a provider verifying tokens with v
func New(store storage.Store, v clerkauth.Verifier) *Provider {
	return &Provider{store: store, verifier: v}
}

// RemoteVerifier asks the API server to verify the token. It is used when the
// CLI has no Clerk secret key of its own.
type RemoteVerifier struct {
	api *client.Client
}

func NewRemoteVerifier(api *client.Client) *RemoteVerifier {
	return &RemoteVerifier{api: api}
}

func (r *RemoteVerifier) Verify(ctx context.Context, token string) (*clerkauth.Identity, error) {
	return r.api.ClerkIdentity(ctx, token)
}

// SetSessionToken stores a Clerk session token obtained from the hosted sign-in page
func (p *Provider) SetSessionToken(token string) error {
	if err := p.store.Set(storage.KeyClerkSession, token); err != nil {
		return fmt.Errorf("failed to save clerk session: %w", err)
	}
	return nil
}

// Session verifies the stored token. A rejected token is forgotten and
// reported as signed-out; other failures are returned.
func (p *Provider) Session(ctx context.Context) (*session.ProviderSession, error) {
	token, err := p.store.Get(storage.KeyClerkSession)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && token == "") {
		return &session.ProviderSession{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read clerk session: %w", err)
	}

	ident, err := p.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, clerkauth.ErrInvalidToken) || client.IsUnauthorized(err) {
			if delErr := p.store.Delete(storage.KeyClerkSession); delErr != nil {
				return nil, fmt.Errorf("failed to forget rejected clerk session: %w", delErr)
			}
			return &session.ProviderSession{}, nil
		}
		return nil, err
	}

	return &session.ProviderSession{
		SignedIn: true,
		User:     ToClerkUser(ident),
		Token:    token,
	}, nil
}

// SignOut forgets the stored Clerk session
func (p *Provider) SignOut(ctx context.Context) error {
	return p.store.Delete(storage.KeyClerkSession)
}

// ToClerkUser reshapes a Clerk identity; the role is always "user"
func ToClerkUser(ident *clerkauth.Identity) *session.ClerkUser {
	return &session.ClerkUser{
		ID:             ident.ID,
		Name:           ident.Name,
		Email:          ident.Email,
		Avatar:         ident.Avatar,
		Role:           clerkRole,
		IsVerified:     ident.IsVerified,
		SocialProvider: ident.SocialProvider,
	}
}
