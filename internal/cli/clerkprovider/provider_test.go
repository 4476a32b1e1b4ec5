package clerkprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wanderlust-dev/wanderlust/internal/clerkauth"
	"github.com/wanderlust-dev/wanderlust/internal/cli/client"
	"github.com/wanderlust-dev/wanderlust/internal/cli/session"
	"github.com/wanderlust-dev/wanderlust/internal/cli/storage"
)

type stubVerifier struct {
	ident *clerkauth.Identity
	err   error
	calls int
}

func (s *stubVerifier) Verify(ctx context.Context, token string) (*clerkauth.Identity, error) {
	s.calls++
	return s.ident, s.err
}

func TestSession_NoStoredToken(t *testing.T) {
	v := &stubVerifier{}
	p := New(storage.NewMemory(), v)

	ps, err := p.Session(context.Background())
	require.NoError(t, err)
	assert.False(t, ps.SignedIn)
	assert.Zero(t, v.calls)
}

func TestSession_SignedIn(t *testing.T) {
	store := storage.NewMemory()
	v := &stubVerifier{ident: &clerkauth.Identity{
		ID:             "user_1",
		Name:           "Jane Doe",
		Email:          "jane@example.com",
		Avatar:         "https://img.example.com/jane.png",
		IsVerified:     true,
		SocialProvider: "google",
	}}
	p := New(store, v)
	require.NoError(t, p.SetSessionToken("sess_123"))

	ps, err := p.Session(context.Background())
	require.NoError(t, err)
	assert.True(t, ps.SignedIn)
	assert.Equal(t, "sess_123", ps.Token)
	assert.Equal(t, &session.ClerkUser{
		ID:             "user_1",
		Name:           "Jane Doe",
		Email:          "jane@example.com",
		Avatar:         "https://img.example.com/jane.png",
		Role:           "user",
		IsVerified:     true,
		SocialProvider: "google",
	}, ps.User)
}

func TestSession_RejectedTokenIsForgotten(t *testing.T) {
	store := storage.NewMemory()
	v := &stubVerifier{err: fmt.Errorf("%w: expired", clerkauth.ErrInvalidToken)}
	p := New(store, v)
	require.NoError(t, p.SetSessionToken("sess_old"))

	ps, err := p.Session(context.Background())
	require.NoError(t, err)
	assert.False(t, ps.SignedIn)
	assert.False(t, storage.Has(store, storage.KeyClerkSession))
}

func TestSession_TransientErrorKeepsToken(t *testing.T) {
	store := storage.NewMemory()
	p := New(store, &stubVerifier{err: errors.New("connection refused")})
	require.NoError(t, p.SetSessionToken("sess_123"))

	_, err := p.Session(context.Background())
	require.Error(t, err)
	assert.True(t, storage.Has(store, storage.KeyClerkSession))
}

func TestSignOut(t *testing.T) {
	store := storage.NewMemory()
	p := New(store, &stubVerifier{})
	require.NoError(t, p.SetSessionToken("sess_123"))

	require.NoError(t, p.SignOut(context.Background()))
	assert.False(t, storage.Has(store, storage.KeyClerkSession))
}

func TestRemoteVerifier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer sess_good" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Invalid or expired Clerk session"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"id": "user_1", "email": "jane@example.com"},
		})
	}))
	defer server.Close()

	store := storage.NewMemory()
	p := New(store, NewRemoteVerifier(client.New(server.URL, client.StaticToken("jwt"))))

	require.NoError(t, p.SetSessionToken("sess_good"))
	ps, err := p.Session(context.Background())
	require.NoError(t, err)
	assert.True(t, ps.SignedIn)
	assert.Equal(t, "user_1", ps.User.ID)

	require.NoError(t, p.SetSessionToken("sess_bad"))
	ps, err = p.Session(context.Background())
	require.NoError(t, err)
	assert.False(t, ps.SignedIn)
	assert.False(t, storage.Has(store, storage.KeyClerkSession))
}
