// Package clerkauth verifies Clerk session tokens and flattens Clerk users
// into the fields the rest of the application stores.
package clerkauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/clerk/clerk-sdk-go/v2/user"
)

var (
	ErrNoEmail          = errors.New("clerk user has no email address")
	ErrEmailNotVerified = errors.New("clerk email address is not verified")
	ErrInvalidToken     = errors.New("invalid clerk session token")
)

// Identity is a Clerk user reduced to profile fields
type Identity struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Avatar         string `json:"avatar"`
	IsVerified     bool   `json:"is_verified"`
	SocialProvider string `json:"social_provider"`
}

// Verifier turns a Clerk session token into an identity
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// SDKVerifier verifies tokens against Clerk using the backend SDK
type SDKVerifier struct {
	verify  func(ctx context.Context, params *jwt.VerifyParams) (*clerk.SessionClaims, error)
	getUser func(ctx context.Context, id string) (*clerk.User, error)
}

// NewSDKVerifier configures the SDK with the instance secret key
func NewSDKVerifier(secretKey string) *SDKVerifier {
	clerk.SetKey(secretKey)
	return &SDKVerifier{verify: jwt.Verify, getUser: user.Get}
}

// Verify checks the token signature and expiry, then loads the user profile
func (v *SDKVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	claims, err := v.verify(ctx, &jwt.VerifyParams{Token: token})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	u, err := v.getUser(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to load clerk user %s: %w", claims.Subject, err)
	}

	ident := FromUser(u)
	return &ident, nil
}

// FromUser flattens a Clerk user. Name prefers the full name, then the first
// name, then the username. Verification follows the primary email address.
func FromUser(u *clerk.User) Identity {
	ident := Identity{ID: u.ID}

	first, last := deref(u.FirstName), deref(u.LastName)
	switch full := strings.TrimSpace(first + " " + last); {
	case full != "" && first != "" && last != "":
		ident.Name = full
	case first != "":
		ident.Name = first
	default:
		ident.Name = deref(u.Username)
	}

	ident.Avatar = deref(u.ImageURL)

	if primary := primaryEmail(u); primary != nil {
		ident.Email = primary.EmailAddress
		ident.IsVerified = primary.Verification != nil && primary.Verification.Status == "verified"
	}

	for _, acct := range u.ExternalAccounts {
		if acct != nil && acct.Provider != "" {
			ident.SocialProvider = strings.TrimPrefix(acct.Provider, "oauth_")
			break
		}
	}

	return ident
}

// FromWebhook decodes the data object of a user.created / user.updated event
func FromWebhook(data json.RawMessage) (Identity, error) {
	var u clerk.User
	if err := json.Unmarshal(data, &u); err != nil {
		return Identity{}, fmt.Errorf("failed to decode clerk user: %w", err)
	}
	ident := FromUser(&u)
	if ident.Email == "" {
		return ident, ErrNoEmail
	}
	return ident, nil
}

func primaryEmail(u *clerk.User) *clerk.EmailAddress {
	var first *clerk.EmailAddress
	for _, e := range u.EmailAddresses {
		if e == nil {
			continue
		}
		if u.PrimaryEmailAddressID != nil && e.ID == *u.PrimaryEmailAddressID {
			return e
		}
		if first == nil {
			first = e
		}
	}
	return first
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
