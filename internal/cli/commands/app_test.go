package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"github.com/wanderlust-dev/wanderlust/internal/clerkauth"
	"github.com/wanderlust-dev/wanderlust/internal/cli/client"
	"github.com/wanderlust-dev/wanderlust/internal/cli/config"
	"github.com/wanderlust-dev/wanderlust/internal/cli/storage"
)

var (
	testUser  = client.User{ID: "u1", Name: "Jane Doe", Email: "jane@example.com", Role: "user", IsVerified: true}
	testAdmin = client.User{ID: "u2", Name: "Ada Admin", Email: "ada@wanderlust.com", Role: "admin", IsVerified: true}
)

// fakeAPI serves the handful of endpoints the commands touch
type fakeAPI struct {
	mu       sync.Mutex
	messages []client.Message
	settings client.SiteSettings
	revoked  []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		messages: []client.Message{{
			ID: "m1", Name: "Jane Doe", Email: "jane@example.com", Subject: "Bali",
			Message: "Do you have June dates?", Status: "unread",
			CreatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		}},
		settings: client.SiteSettings{SiteName: "Wanderlust Travels", Tagline: "Explore the world with us"},
	}
}

func reply(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": status < 300,
		"message": message,
		"data":    data,
	})
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func (f *fakeAPI) caller(r *http.Request) *client.User {
	switch bearer(r) {
	case "user-token":
		u := testUser
		return &u
	case "admin-token":
		u := testAdmin
		return &u
	}
	return nil
}

func (f *fakeAPI) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := f.caller(r)
		if u == nil {
			reply(w, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}
		if !u.IsAdmin() {
			reply(w, http.StatusForbidden, "Admin access required", nil)
			return
		}
		next(w, r)
	}
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Email, Password string }
		json.NewDecoder(r.Body).Decode(&req)
		switch {
		case req.Email == testUser.Email && req.Password == "secret":
			reply(w, http.StatusOK, "Login successful", client.AuthResponse{Token: "user-token", User: &testUser})
		case req.Email == testAdmin.Email && req.Password == "secret":
			reply(w, http.StatusOK, "Login successful", client.AuthResponse{Token: "admin-token", User: &testAdmin})
		default:
			reply(w, http.StatusUnauthorized, "Invalid email or password", nil)
		}
	})

	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.revoked = append(f.revoked, bearer(r))
		f.mu.Unlock()
		reply(w, http.StatusOK, "Logged out", nil)
	})

	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		u := f.caller(r)
		if u == nil {
			reply(w, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}
		reply(w, http.StatusOK, "", u)
	})

	mux.HandleFunc("GET /api/auth/clerk/identity", func(w http.ResponseWriter, r *http.Request) {
		if bearer(r) != "clerk-session" {
			reply(w, http.StatusUnauthorized, "Invalid Clerk session", nil)
			return
		}
		reply(w, http.StatusOK, "", clerkauth.Identity{
			ID: "user_2abc", Name: "Jane Doe", Email: "jane@example.com", IsVerified: true, SocialProvider: "google",
		})
	})

	mux.HandleFunc("POST /api/messages", func(w http.ResponseWriter, r *http.Request) {
		var in client.MessageInput
		json.NewDecoder(r.Body).Decode(&in)
		if in.Email == "bounce@example.com" {
			reply(w, http.StatusBadRequest, "Please provide a valid email address", nil)
			return
		}
		reply(w, http.StatusCreated, "Message sent successfully! We'll get back to you soon.",
			client.Message{ID: "m2", Name: in.Name, Email: in.Email, Message: in.Message, Status: "unread"})
	})

	mux.HandleFunc("GET /api/messages", f.adminOnly(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		reply(w, http.StatusOK, "", f.messages)
	}))

	mux.HandleFunc("PATCH /api/messages/{id}/status", f.adminOnly(func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Status string }
		json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.messages {
			if f.messages[i].ID == r.PathValue("id") {
				f.messages[i].Status = req.Status
				reply(w, http.StatusOK, "Status updated", f.messages[i])
				return
			}
		}
		reply(w, http.StatusNotFound, "Message not found", nil)
	}))

	mux.HandleFunc("GET /api/packages", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, "", []client.Package{{
			ID: "p1", Title: "Bali Honeymoon", Slug: "bali-honeymoon", Destination: "Bali",
			PriceCents: 129999, DurationDays: 7, IsFeatured: true, IsActive: true,
		}})
	})

	mux.HandleFunc("GET /api/site-settings", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		reply(w, http.StatusOK, "", f.settings)
	})

	mux.HandleFunc("PUT /api/site-settings", f.adminOnly(func(w http.ResponseWriter, r *http.Request) {
		var update client.SiteSettingsUpdate
		json.NewDecoder(r.Body).Decode(&update)

		f.mu.Lock()
		defer f.mu.Unlock()
		if update.Tagline != nil {
			f.settings.Tagline = *update.Tagline
		}
		reply(w, http.StatusOK, "Settings updated", f.settings)
	}))

	return mux
}

// newTestRuntime returns a runtime bound to api with an in-memory session store
func newTestRuntime(t *testing.T, api *httptest.Server, kv storage.Store) (*Runtime, *bytes.Buffer) {
	t.Helper()
	t.Setenv("CLERK_SECRET_KEY", "")
	t.Setenv("CLERK_SESSION_TOKEN", "")
	t.Setenv("WANDERLUST_EMAIL", "")
	t.Setenv("WANDERLUST_PASSWORD", "")

	var out bytes.Buffer
	rt := &Runtime{Out: &out}
	rt.Load = func(ctx context.Context, rt *Runtime) (*App, error) {
		return NewApp(ctx, rt, &config.Server{URL: api.URL, Alias: "test"}, kv)
	}
	return rt, &out
}

// signedIn returns a store holding a session for user
func signedIn(t *testing.T, token string, user client.User) *storage.Memory {
	t.Helper()
	kv := storage.NewMemory()
	data, err := json.Marshal(user)
	require.NoError(t, err)
	require.NoError(t, kv.Set(storage.KeyToken, token))
	require.NoError(t, kv.Set(storage.KeyUser, string(data)))
	return kv
}

func execute(cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}
