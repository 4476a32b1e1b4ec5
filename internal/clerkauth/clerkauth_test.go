package clerkauth

import (
	"context"
	"errors"
	"testing"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestFromUser(t *testing.T) {
	tests := []struct {
		name string
		user *clerk.User
		want Identity
	}{
		{
			name: "full name and verified primary email",
			user: &clerk.User{
				ID:                    "user_1",
				FirstName:             strPtr("Jane"),
				LastName:              strPtr("Doe"),
				ImageURL:              strPtr("https://img.example/jane.png"),
				PrimaryEmailAddressID: strPtr("idn_2"),
				EmailAddresses: []*clerk.EmailAddress{
					{ID: "idn_1", EmailAddress: "old@example.com"},
					{ID: "idn_2", EmailAddress: "jane@example.com", Verification: &clerk.Verification{Status: "verified"}},
				},
				ExternalAccounts: []*clerk.ExternalAccount{{Provider: "oauth_google"}},
			},
			want: Identity{
				ID:             "user_1",
				Name:           "Jane Doe",
				Email:          "jane@example.com",
				Avatar:         "https://img.example/jane.png",
				IsVerified:     true,
				SocialProvider: "google",
			},
		},
		{
			name: "first name only",
			user: &clerk.User{
				ID:             "user_2",
				FirstName:      strPtr("Sam"),
				EmailAddresses: []*clerk.EmailAddress{{ID: "idn_3", EmailAddress: "sam@example.com", Verification: &clerk.Verification{Status: "unverified"}}},
			},
			want: Identity{ID: "user_2", Name: "Sam", Email: "sam@example.com"},
		},
		{
			name: "username fallback",
			user: &clerk.User{ID: "user_3", Username: strPtr("traveller")},
			want: Identity{ID: "user_3", Name: "traveller"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromUser(tt.user))
		})
	}
}

func TestFromWebhook(t *testing.T) {
	data := []byte(`{
		"id": "user_9",
		"first_name": "Ana",
		"last_name": "Lima",
		"image_url": "https://img.example/ana.png",
		"primary_email_address_id": "idn_9",
		"email_addresses": [{"id": "idn_9", "email_address": "ana@example.com", "verification": {"status": "verified"}}],
		"external_accounts": [{"provider": "oauth_github"}]
	}`)

	ident, err := FromWebhook(data)
	require.NoError(t, err)
	assert.Equal(t, "user_9", ident.ID)
	assert.Equal(t, "Ana Lima", ident.Name)
	assert.Equal(t, "ana@example.com", ident.Email)
	assert.True(t, ident.IsVerified)
	assert.Equal(t, "github", ident.SocialProvider)

	_, err = FromWebhook([]byte(`{"id": "user_10"}`))
	assert.ErrorIs(t, err, ErrNoEmail)
}

func TestSDKVerifier_Verify(t *testing.T) {
	v := &SDKVerifier{
		verify: func(ctx context.Context, params *jwt.VerifyParams) (*clerk.SessionClaims, error) {
			if params.Token != "good" {
				return nil, errors.New("bad signature")
			}
			claims := &clerk.SessionClaims{}
			claims.Subject = "user_1"
			return claims, nil
		},
		getUser: func(ctx context.Context, id string) (*clerk.User, error) {
			return &clerk.User{ID: id, FirstName: strPtr("Jane")}, nil
		},
	}

	ident, err := v.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "user_1", ident.ID)
	assert.Equal(t, "Jane", ident.Name)

	_, err = v.Verify(context.Background(), "forged")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
