package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wanderlust-dev/wanderlust/internal/cli/client"
	"github.com/wanderlust-dev/wanderlust/internal/cli/storage"
)

type fakeAccount struct {
	user     client.User
	password string
}

// fakeAPI is a minimal in-memory version of the auth endpoints
type fakeAPI struct {
	mu           sync.Mutex
	accounts     map[string]*fakeAccount // by email
	tokens       map[string]string       // token -> email
	nextToken    int
	meStatus     int
	logoutStatus int
	logouts      []string
	lastAuth     string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		accounts: make(map[string]*fakeAccount),
		tokens:   make(map[string]string),
	}
}

func (f *fakeAPI) addAccount(name, email, password, role string) *client.User {
	f.mu.Lock()
	defer f.mu.Unlock()

	acc := &fakeAccount{
		user: client.User{
			ID:         fmt.Sprintf("u%d", len(f.accounts)+1),
			Name:       name,
			Email:      email,
			Role:       role,
			IsVerified: true,
			CreatedAt:  "2025-01-02T03:04:05Z",
		},
		password: password,
	}
	f.accounts[email] = acc
	u := acc.user
	return &u
}

func (f *fakeAPI) issue(email string) string {
	f.nextToken++
	token := fmt.Sprintf("token-%d", f.nextToken)
	f.tokens[token] = email
	return token
}

func (f *fakeAPI) caller(r *http.Request) *fakeAccount {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	email, ok := f.tokens[token]
	if !ok {
		return nil
	}
	return f.accounts[email]
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

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		var req struct{ Email, Password string }
		json.NewDecoder(r.Body).Decode(&req)
		acc, ok := f.accounts[req.Email]
		if !ok || acc.password != req.Password {
			reply(w, http.StatusUnauthorized, "Invalid email or password", nil)
			return
		}
		reply(w, http.StatusOK, "Login successful", client.AuthResponse{Token: f.issue(req.Email), User: &acc.user})
	})

	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Name, Email, Password string }
		json.NewDecoder(r.Body).Decode(&req)
		f.addAccount(req.Name, req.Email, req.Password, "user")

		f.mu.Lock()
		defer f.mu.Unlock()
		acc := f.accounts[req.Email]
		reply(w, http.StatusCreated, "Registration successful", client.AuthResponse{Token: f.issue(req.Email), User: &acc.user})
	})

	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.meStatus != 0 {
			reply(w, f.meStatus, "unavailable", nil)
			return
		}
		acc := f.caller(r)
		if acc == nil {
			reply(w, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}
		reply(w, http.StatusOK, "", acc.user)
	})

	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.logouts = append(f.logouts, r.Header.Get("Authorization"))
		if f.logoutStatus != 0 {
			reply(w, f.logoutStatus, "boom", nil)
			return
		}
		reply(w, http.StatusOK, "Logged out", nil)
	})

	mux.HandleFunc("PUT /api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		acc := f.caller(r)
		if acc == nil {
			reply(w, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}
		var req client.ProfileUpdate
		json.NewDecoder(r.Body).Decode(&req)
		if req.Name != nil {
			acc.user.Name = *req.Name
		}
		reply(w, http.StatusOK, "Profile updated", acc.user)
	})

	mux.HandleFunc("PUT /api/auth/change-password", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		acc := f.caller(r)
		var req struct {
			Current string `json:"current_password"`
			Next    string `json:"new_password"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if acc == nil || acc.password != req.Current {
			reply(w, http.StatusBadRequest, "Current password is incorrect", nil)
			return
		}
		acc.password = req.Next
		reply(w, http.StatusOK, "Password changed successfully", nil)
	})

	mux.HandleFunc("POST /api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		acc := f.caller(r)
		if acc == nil {
			reply(w, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}
		delete(f.tokens, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		reply(w, http.StatusOK, "Token refreshed", client.AuthResponse{Token: f.issue(acc.user.Email), User: &acc.user})
	})

	mux.HandleFunc("POST /api/auth/make-admin", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		acc := f.caller(r)
		if acc == nil {
			reply(w, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}
		acc.user.Role = "admin"
		reply(w, http.StatusOK, "You are now an admin", client.AuthResponse{Token: f.issue(acc.user.Email), User: &acc.user})
	})

	mux.HandleFunc("GET /api/site-settings", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lastAuth = r.Header.Get("Authorization")
		f.mu.Unlock()
		reply(w, http.StatusOK, "", client.SiteSettings{SiteName: "Wanderlust Travels"})
	})

	return mux
}

type fakeProvider struct {
	session  *ProviderSession
	err      error
	signOuts int
}

func (p *fakeProvider) Session(ctx context.Context) (*ProviderSession, error) {
	return p.session, p.err
}

func (p *fakeProvider) SignOut(ctx context.Context) error {
	p.signOuts++
	p.session = &ProviderSession{}
	return nil
}

func newTestManager(t *testing.T, api *fakeAPI, opts ...Option) (*Manager, *storage.Memory) {
	t.Helper()

	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	store := storage.NewMemory()
	return New(server.URL, store, opts...), store
}

func storedUser(t *testing.T, store storage.Store) *client.User {
	t.Helper()

	raw, err := store.Get(storage.KeyUser)
	require.NoError(t, err)
	var u client.User
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	return &u
}

func TestReduce(t *testing.T) {
	admin := &client.User{ID: "1", Role: "admin"}
	user := &client.User{ID: "2", Role: "user"}

	tests := []struct {
		name   string
		start  State
		action Action
		want   State
	}{
		{
			name:   "start sets loading and clears error",
			start:  State{Error: "old"},
			action: Action{Type: ActionAuthStart},
			want:   State{Loading: true},
		},
		{
			name:   "success authenticates",
			start:  State{Loading: true},
			action: Action{Type: ActionAuthSuccess, User: admin},
			want:   State{User: admin, IsAuthenticated: true, HasAdminSession: true},
		},
		{
			name:   "fail drops the user",
			start:  State{User: user, IsAuthenticated: true, Loading: true},
			action: Action{Type: ActionAuthFail, Error: "Invalid email or password"},
			want:   State{Error: "Invalid email or password"},
		},
		{
			name:   "logout resets",
			start:  State{User: admin, IsAuthenticated: true, HasAdminSession: true},
			action: Action{Type: ActionLogout},
			want:   State{},
		},
		{
			name:   "update user replaces the user",
			start:  State{User: user, IsAuthenticated: true},
			action: Action{Type: ActionUpdateUser, User: admin},
			want:   State{User: admin, IsAuthenticated: true, HasAdminSession: true},
		},
		{
			name:   "update user after logout is ignored",
			start:  State{},
			action: Action{Type: ActionUpdateUser, User: user},
			want:   State{},
		},
		{
			name:   "clear error",
			start:  State{User: user, IsAuthenticated: true, Error: "x"},
			action: Action{Type: ActionClearError},
			want:   State{User: user, IsAuthenticated: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reduce(tt.start, tt.action))
		})
	}
}

func TestReduce_DoesNotAlias(t *testing.T) {
	u := &client.User{ID: "1", Name: "Before"}
	s := Reduce(State{}, Action{Type: ActionAuthSuccess, User: u})
	u.Name = "After"
	assert.Equal(t, "Before", s.User.Name)
}

func TestLogin_StoresServerUserExactly(t *testing.T) {
	api := newFakeAPI()
	serverUser := api.addAccount("Jane", "jane@example.com", "secret1", "user")
	m, store := newTestManager(t, api)

	require.NoError(t, m.Login(context.Background(), "jane@example.com", "secret1"))

	snap := m.Snapshot()
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, SourceTraditional, snap.Active)
	assert.Equal(t, serverUser, storedUser(t, store))
	assert.Equal(t, serverUser, snap.User)

	token, err := store.Get(storage.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, token, m.Token())

	// Resource calls pick up the token without any shared header
	_, err = m.Client().GetSiteSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+token, api.lastAuth)
}

func TestLogin_Failure(t *testing.T) {
	api := newFakeAPI()
	api.addAccount("Jane", "jane@example.com", "secret1", "user")
	m, store := newTestManager(t, api)

	err := m.Login(context.Background(), "jane@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", Message(err))

	snap := m.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.False(t, snap.Loading)
	assert.Equal(t, "Invalid email or password", snap.Error)
	assert.False(t, storage.Has(store, storage.KeyToken))
	assert.Empty(t, m.Token())

	m.ClearError()
	assert.Empty(t, m.Snapshot().Error)
}

func TestRegister(t *testing.T) {
	m, store := newTestManager(t, newFakeAPI())

	require.NoError(t, m.Register(context.Background(), "Sam", "sam@example.com", "secret1"))
	assert.True(t, m.Snapshot().IsAuthenticated)
	assert.Equal(t, "sam@example.com", storedUser(t, store).Email)
}

func TestLogout_AlwaysClears(t *testing.T) {
	for _, status := range []int{0, http.StatusInternalServerError} {
		t.Run(fmt.Sprintf("server status %d", status), func(t *testing.T) {
			api := newFakeAPI()
			api.addAccount("Jane", "jane@example.com", "secret1", "user")
			api.logoutStatus = status
			m, store := newTestManager(t, api)
			require.NoError(t, m.Login(context.Background(), "jane@example.com", "secret1"))
			token := m.Token()

			m.Logout(context.Background())

			assert.False(t, storage.Has(store, storage.KeyToken))
			assert.False(t, storage.Has(store, storage.KeyUser))
			assert.False(t, m.Snapshot().IsAuthenticated)
			assert.Empty(t, m.Token())
			assert.Equal(t, []string{"Bearer " + token}, api.logouts)
		})
	}
}

func TestAdminLogin(t *testing.T) {
	api := newFakeAPI()
	api.addAccount("Jane", "jane@example.com", "secret1", "user")
	api.addAccount("Boss", "boss@example.com", "secret1", "admin")
	m, store := newTestManager(t, api)

	err := m.AdminLogin(context.Background(), "jane@example.com", "secret1")
	require.ErrorIs(t, err, ErrNotAdmin)
	assert.Equal(t, "Access denied. Admin privileges required.", m.Snapshot().Error)
	assert.False(t, storage.Has(store, storage.KeyToken))
	assert.Len(t, api.logouts, 1, "the unused token is revoked")

	require.NoError(t, m.AdminLogin(context.Background(), "boss@example.com", "secret1"))
	view := m.AdminView()
	assert.True(t, view.IsAdminAuthenticated)
	require.NotNil(t, view.Admin)
	assert.Equal(t, "boss@example.com", view.Admin.Email)
	assert.True(t, m.Snapshot().HasAdminSession)

	m.AdminSignOut(context.Background())
	assert.False(t, m.AdminView().IsAdminAuthenticated)
	assert.False(t, storage.Has(store, storage.KeyUser))
}

func seedSession(t *testing.T, api *fakeAPI, store storage.Store, cached *client.User) string {
	t.Helper()

	api.mu.Lock()
	token := api.issue("jane@example.com")
	api.mu.Unlock()

	require.NoError(t, store.Set(storage.KeyToken, token))
	if cached != nil {
		data, _ := json.Marshal(cached)
		require.NoError(t, store.Set(storage.KeyUser, string(data)))
	}
	return token
}

func TestInit(t *testing.T) {
	t.Run("no stored token", func(t *testing.T) {
		m, _ := newTestManager(t, newFakeAPI())
		require.NoError(t, m.Init(context.Background()))
		assert.False(t, m.Snapshot().IsAuthenticated)
	})

	t.Run("server copy replaces cached user", func(t *testing.T) {
		api := newFakeAPI()
		serverUser := api.addAccount("Jane Server", "jane@example.com", "secret1", "user")
		m, store := newTestManager(t, api)
		seedSession(t, api, store, &client.User{ID: serverUser.ID, Name: "Jane Cached", Email: "jane@example.com"})

		var seen []string
		m.Subscribe(func(s Snapshot) {
			if s.User != nil {
				seen = append(seen, s.User.Name)
			}
		})

		require.NoError(t, m.Init(context.Background()))
		assert.Equal(t, []string{"Jane Cached", "Jane Server"}, seen, "cached user is shown first")
		assert.Equal(t, serverUser, storedUser(t, store))
		assert.True(t, m.Snapshot().IsAuthenticated)
	})

	t.Run("401 clears everything", func(t *testing.T) {
		api := newFakeAPI()
		m, store := newTestManager(t, api)
		require.NoError(t, store.Set(storage.KeyToken, "expired"))
		require.NoError(t, store.Set(storage.KeyUser, `{"id":"u1"}`))

		require.NoError(t, m.Init(context.Background()))
		assert.False(t, m.Snapshot().IsAuthenticated)
		assert.False(t, storage.Has(store, storage.KeyToken))
		assert.False(t, storage.Has(store, storage.KeyUser))
	})

	t.Run("other failures keep the cached session", func(t *testing.T) {
		api := newFakeAPI()
		api.addAccount("Jane", "jane@example.com", "secret1", "user")
		api.meStatus = http.StatusServiceUnavailable
		m, store := newTestManager(t, api)
		token := seedSession(t, api, store, &client.User{ID: "u1", Name: "Jane Cached"})

		require.NoError(t, m.Init(context.Background()))
		snap := m.Snapshot()
		assert.True(t, snap.IsAuthenticated)
		assert.Equal(t, "Jane Cached", snap.User.Name)
		assert.Equal(t, token, m.Token())
	})
}

func TestUpdateProfileAndPassword(t *testing.T) {
	api := newFakeAPI()
	api.addAccount("Jane", "jane@example.com", "secret1", "user")
	m, store := newTestManager(t, api)
	ctx := context.Background()

	_, err := m.UpdateProfile(ctx, client.ProfileUpdate{})
	require.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, m.Login(ctx, "jane@example.com", "secret1"))

	name := "Jane Doe"
	user, err := m.UpdateProfile(ctx, client.ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", user.Name)
	assert.Equal(t, "Jane Doe", m.Snapshot().User.Name)
	assert.Equal(t, "Jane Doe", storedUser(t, store).Name)

	err = m.ChangePassword(ctx, "nope", "secret2")
	require.Error(t, err)
	assert.Equal(t, "Current password is incorrect", Message(err))
	assert.True(t, m.Snapshot().IsAuthenticated, "a rejected change keeps the session")

	require.NoError(t, m.ChangePassword(ctx, "secret1", "secret2"))
}

func TestRefreshToken(t *testing.T) {
	api := newFakeAPI()
	api.addAccount("Jane", "jane@example.com", "secret1", "user")
	m, store := newTestManager(t, api)
	ctx := context.Background()
	require.NoError(t, m.Login(ctx, "jane@example.com", "secret1"))
	before := m.Token()

	require.NoError(t, m.RefreshToken(ctx))
	after, err := store.Get(storage.KeyToken)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
	assert.Equal(t, after, m.Token())

	// The server forgets tokens; a 401 ends the session
	api.mu.Lock()
	delete(api.tokens, after)
	api.mu.Unlock()
	err = m.RefreshToken(ctx)
	require.True(t, client.IsUnauthorized(err))
	assert.False(t, m.Snapshot().IsAuthenticated)
	assert.False(t, storage.Has(store, storage.KeyToken))
}

func TestMakeCurrentUserAdmin(t *testing.T) {
	api := newFakeAPI()
	api.addAccount("Jane", "jane@example.com", "secret1", "user")
	m, store := newTestManager(t, api)
	ctx := context.Background()

	_, err := m.MakeCurrentUserAdmin(ctx)
	require.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, m.Login(ctx, "jane@example.com", "secret1"))
	user, err := m.MakeCurrentUserAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Role)
	assert.Equal(t, "admin", storedUser(t, store).Role)
	assert.True(t, m.AdminView().IsAdminAuthenticated)
}

func TestProviderPrecedence(t *testing.T) {
	api := newFakeAPI()
	api.addAccount("Boss", "boss@example.com", "secret1", "admin")
	provider := &fakeProvider{}
	m, _ := newTestManager(t, api, WithProvider(provider))
	ctx := context.Background()

	require.NoError(t, m.Login(ctx, "boss@example.com", "secret1"))
	jwt := m.Token()
	assert.True(t, m.AdminView().IsAdminAuthenticated)

	provider.session = &ProviderSession{
		SignedIn: true,
		Token:    "clerk-token",
		User:     &ClerkUser{ID: "user_1", Email: "boss@example.com", Role: "user", SocialProvider: "google"},
	}
	require.NoError(t, m.SyncProvider(ctx))

	snap := m.Snapshot()
	assert.Equal(t, SourceProvider, snap.Active)
	assert.Equal(t, "user_1", snap.ActiveUser.ID)
	assert.Equal(t, "clerk-token", m.Token())
	assert.True(t, snap.RoleConflict)
	assert.False(t, snap.IsAdminAuthenticated, "the provider role is in effect")
	assert.Nil(t, snap.Admin)

	require.NoError(t, m.SignOutProvider(ctx))
	assert.Equal(t, 1, provider.signOuts)

	snap = m.Snapshot()
	assert.Equal(t, SourceTraditional, snap.Active)
	assert.False(t, snap.RoleConflict)
	assert.True(t, snap.IsAdminAuthenticated)
	assert.Equal(t, jwt, m.Token())
}

func TestSyncProvider_Errors(t *testing.T) {
	provider := &fakeProvider{
		session: &ProviderSession{SignedIn: true, Token: "t", User: &ClerkUser{ID: "user_1", Role: "user"}},
	}
	m, _ := newTestManager(t, newFakeAPI(), WithProvider(provider))
	ctx := context.Background()
	require.NoError(t, m.SyncProvider(ctx))

	provider.err = errors.New("network down")
	require.Error(t, m.SyncProvider(ctx))
	assert.True(t, m.Snapshot().ProviderSignedIn, "a failed poll keeps the last known state")

	provider.err = nil
	provider.session = &ProviderSession{SignedIn: false}
	require.NoError(t, m.SyncProvider(ctx))
	assert.False(t, m.Snapshot().ProviderSignedIn)
	assert.Empty(t, m.Token())
}

func TestSyncProvider_WithoutProvider(t *testing.T) {
	m, _ := newTestManager(t, newFakeAPI())
	require.NoError(t, m.SyncProvider(context.Background()))
	assert.Equal(t, SourceNone, m.Snapshot().Active)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	api := newFakeAPI()
	api.addAccount("Jane", "jane@example.com", "secret1", "user")
	m, _ := newTestManager(t, api)

	calls := 0
	cancel := m.Subscribe(func(Snapshot) { calls++ })
	require.NoError(t, m.Login(context.Background(), "jane@example.com", "secret1"))
	assert.Equal(t, 2, calls, "start and success")

	cancel()
	m.Logout(context.Background())
	assert.Equal(t, 2, calls)
}

func TestDiagnose(t *testing.T) {
	m, store := newTestManager(t, newFakeAPI())
	require.NoError(t, store.Set(storage.LegacyKeyToken, "old"))

	d := m.Diagnose()
	assert.True(t, d.LegacyToken)
	assert.False(t, d.LegacyUser)
	assert.False(t, d.HasToken)

	// Diagnostics never migrate legacy keys
	assert.False(t, storage.Has(store, storage.KeyToken))
}
