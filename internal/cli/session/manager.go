package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wanderlust-dev/wanderlust/internal/cli/client"
	"github.com/wanderlust-dev/wanderlust/internal/cli/storage"
)

var (
	ErrNotAdmin         = errors.New("admin privileges required")
	ErrNotAuthenticated = errors.New("not signed in")
)

// Message flattens err into the text shown to the user
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotAdmin):
		return "Access denied. Admin privileges required."
	case errors.Is(err, ErrNotAuthenticated):
		return "Please sign in to continue."
	}
	return client.DisplayMessage(err)
}

// Source says which identity is active
type Source string

const (
	SourceNone        Source = "none"
	SourceTraditional Source = "traditional"
	SourceProvider    Source = "provider"
)

// AdminView is the admin projection of the active identity
type AdminView struct {
	IsAdminAuthenticated bool
	Admin                *client.User
}

// Snapshot is an immutable copy of everything the manager knows
type Snapshot struct {
	State

	ProviderSignedIn bool
	ProviderUser     *ClerkUser

	Active     Source
	ActiveUser *client.User
	AdminView

	// RoleConflict is set when both sessions are valid and disagree on role.
	// The provider identity's role is the one in effect.
	RoleConflict bool
}

// Option configures a Manager
type Option func(*Manager)

// WithProvider attaches a third-party identity provider
func WithProvider(p IdentityProvider) Option {
	return func(m *Manager) { m.provider = p }
}

// WithLogger sets the diagnostics logger
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithHTTPClient replaces the HTTP client used for API calls
func WithHTTPClient(hc *http.Client) Option {
	return func(m *Manager) { m.api.SetHTTPClient(hc) }
}

// Manager is the single authentication state machine. It owns the token:
// nothing else writes the token or user storage keys.
type Manager struct {
	mu       sync.RWMutex
	state    State
	token    string
	provider IdentityProvider
	ps       ProviderSession

	store  storage.Store
	api    *client.Client
	logger zerolog.Logger

	subscribers    map[int]func(Snapshot)
	nextSubscriber int
	conflictLogged bool
}

// New creates a manager talking to the API at baseURL
func New(baseURL string, store storage.Store, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		logger:      zerolog.Nop(),
		subscribers: make(map[int]func(Snapshot)),
	}
	m.api = client.New(baseURL, m)
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With().Str("component", "session").Logger()
	return m
}

// Client returns the API client authenticated with the active token
func (m *Manager) Client() *client.Client {
	return m.api
}

// Token returns the active bearer token. The provider token wins while the
// provider reports signed-in.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ps.SignedIn && m.ps.Token != "" {
		return m.ps.Token
	}
	return m.token
}

// Snapshot returns the current state
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// AdminView returns the admin projection, computed from the same snapshot
func (m *Manager) AdminView() AdminView {
	return m.Snapshot().AdminView
}

// Subscribe registers fn for every state change and returns a cancel func
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	id := m.nextSubscriber
	m.nextSubscriber++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	state := m.state
	state.User = copyUser(state.User)

	snap := Snapshot{
		State:            state,
		ProviderSignedIn: m.ps.SignedIn,
		Active:           SourceNone,
	}
	if m.ps.User != nil {
		u := *m.ps.User
		snap.ProviderUser = &u
	}

	switch {
	case m.ps.SignedIn && m.ps.User != nil:
		snap.Active = SourceProvider
		snap.ActiveUser = m.ps.User.AsUser()
	case m.state.IsAuthenticated && m.state.User != nil:
		snap.Active = SourceTraditional
		snap.ActiveUser = copyUser(m.state.User)
	}

	if snap.ActiveUser.IsAdmin() {
		snap.IsAdminAuthenticated = true
		snap.Admin = copyUser(snap.ActiveUser)
	}

	if snap.Active == SourceProvider && m.state.IsAuthenticated && m.state.User != nil {
		snap.RoleConflict = m.state.User.Role != m.ps.User.Role
	}
	return snap
}

// dispatch reduces a, applies its token and notifies subscribers
func (m *Manager) dispatch(a Action) {
	m.mu.Lock()
	m.state = Reduce(m.state, a)
	switch {
	case a.Type == ActionLogout || a.Type == ActionAuthFail:
		m.token = ""
	case a.Token != "":
		m.token = a.Token
	}
	m.publishLocked()
}

// publishLocked must be called with mu held; it releases it
func (m *Manager) publishLocked() {
	snap := m.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}

	logConflict := snap.RoleConflict && !m.conflictLogged
	m.conflictLogged = snap.RoleConflict
	m.mu.Unlock()

	if logConflict {
		m.logger.Warn().
			Str("provider_role", snap.ProviderUser.Role).
			Str("session_role", snap.State.User.Role).
			Msg("Signed in twice with different roles; using the provider identity")
	}

	for _, fn := range subs {
		fn(snap)
	}
}

func (m *Manager) traditionalToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// persist writes the session keys before the state changes
func (m *Manager) persist(token string, user *client.User) error {
	if token != "" {
		if err := m.store.Set(storage.KeyToken, token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
	}
	if user != nil {
		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("failed to marshal user: %w", err)
		}
		if err := m.store.Set(storage.KeyUser, string(data)); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
	}
	return nil
}

// clear is the only path that deletes the session keys
func (m *Manager) clear() {
	for _, key := range []string{storage.KeyToken, storage.KeyUser} {
		if err := m.store.Delete(key); err != nil {
			m.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete stored session key")
		}
	}
	m.dispatch(Action{Type: ActionLogout})
}

func (m *Manager) storedUser() *client.User {
	raw, err := m.store.Get(storage.KeyUser)
	if err != nil {
		return nil
	}
	var user client.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		m.logger.Warn().Err(err).Msg("Ignoring unreadable stored user")
		return nil
	}
	return &user
}

// Init restores a stored session. The cached user is shown immediately and
// then re-validated with /api/auth/me: the server copy replaces it on success
// and a 401 clears everything. Other failures keep the cached session.
func (m *Manager) Init(ctx context.Context) error {
	token, err := m.store.Get(storage.KeyToken)
	if errors.Is(err, storage.ErrNotFound) || token == "" {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read stored token: %w", err)
	}

	cached := m.storedUser()
	if cached != nil {
		m.dispatch(Action{Type: ActionAuthSuccess, User: cached, Token: token})
	} else {
		m.mu.Lock()
		m.token = token
		m.mu.Unlock()
	}

	user, err := m.api.WithToken(token).Me(ctx)
	switch {
	case err == nil:
		if err := m.persist("", user); err != nil {
			return err
		}
		m.dispatch(Action{Type: ActionAuthSuccess, User: user, Token: token})
		return nil
	case client.IsUnauthorized(err):
		m.logger.Debug().Msg("Stored session rejected by server")
		m.clear()
		return nil
	case cached != nil:
		m.logger.Warn().Err(err).Msg("Could not verify stored session, using cached user")
		return nil
	default:
		return fmt.Errorf("failed to verify stored session: %w", err)
	}
}

func (m *Manager) authenticate(ctx context.Context, call func(context.Context) (*client.AuthResponse, error)) error {
	m.dispatch(Action{Type: ActionAuthStart})

	resp, err := call(ctx)
	if err == nil && (resp.User == nil || resp.Token == "") {
		err = errors.New("server response is missing the session")
	}
	if err != nil {
		m.fail(err)
		return err
	}

	if err := m.persist(resp.Token, resp.User); err != nil {
		m.fail(err)
		return err
	}
	m.dispatch(Action{Type: ActionAuthSuccess, User: resp.User, Token: resp.Token})
	return nil
}

// fail ends the attempt. A failed sign-in also ends any earlier session so
// the state never disagrees with storage.
func (m *Manager) fail(err error) {
	for _, key := range []string{storage.KeyToken, storage.KeyUser} {
		if delErr := m.store.Delete(key); delErr != nil {
			m.logger.Warn().Err(delErr).Str("key", key).Msg("Failed to delete stored session key")
		}
	}
	m.dispatch(Action{Type: ActionAuthFail, Error: Message(err)})
}

// Register creates an account and signs in
func (m *Manager) Register(ctx context.Context, name, email, password string) error {
	return m.authenticate(ctx, func(ctx context.Context) (*client.AuthResponse, error) {
		return m.api.WithToken("").Register(ctx, name, email, password)
	})
}

// Login signs in with email and password
func (m *Manager) Login(ctx context.Context, email, password string) error {
	return m.authenticate(ctx, func(ctx context.Context) (*client.AuthResponse, error) {
		return m.api.WithToken("").Login(ctx, email, password)
	})
}

// AdminLogin signs in through the same endpoint but only keeps the session
// when the account is an admin.
func (m *Manager) AdminLogin(ctx context.Context, email, password string) error {
	return m.authenticate(ctx, func(ctx context.Context) (*client.AuthResponse, error) {
		resp, err := m.api.WithToken("").Login(ctx, email, password)
		if err != nil {
			return nil, err
		}
		if !resp.User.IsAdmin() {
			// The token was issued but will not be used
			if err := m.api.WithToken(resp.Token).Logout(ctx); err != nil {
				m.logger.Debug().Err(err).Msg("Failed to revoke non-admin token")
			}
			return nil, ErrNotAdmin
		}
		return resp, nil
	})
}

// Logout revokes the token on a best-effort basis and always clears local state
func (m *Manager) Logout(ctx context.Context) {
	if token := m.traditionalToken(); token != "" {
		if err := m.api.WithToken(token).Logout(ctx); err != nil {
			m.logger.Debug().Err(err).Msg("Server logout failed, clearing local session anyway")
		}
	}
	m.clear()
}

// AdminSignOut ends the admin session. It is the same path as Logout.
func (m *Manager) AdminSignOut(ctx context.Context) {
	m.Logout(ctx)
}

// requireTraditional returns the email/password token or ErrNotAuthenticated
func (m *Manager) requireTraditional() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.state.IsAuthenticated || m.token == "" {
		return "", ErrNotAuthenticated
	}
	return m.token, nil
}

// handleSessionError clears the session when the server rejected the token
func (m *Manager) handleSessionError(err error) error {
	if client.IsUnauthorized(err) {
		m.clear()
	}
	return err
}

// UpdateProfile saves profile changes and replaces the stored user
func (m *Manager) UpdateProfile(ctx context.Context, update client.ProfileUpdate) (*client.User, error) {
	token, err := m.requireTraditional()
	if err != nil {
		return nil, err
	}

	user, err := m.api.WithToken(token).UpdateProfile(ctx, update)
	if err != nil {
		return nil, m.handleSessionError(err)
	}
	if err := m.persist("", user); err != nil {
		return nil, err
	}
	m.dispatch(Action{Type: ActionUpdateUser, User: user})
	return user, nil
}

// ChangePassword changes the password of the signed-in account
func (m *Manager) ChangePassword(ctx context.Context, current, next string) error {
	token, err := m.requireTraditional()
	if err != nil {
		return err
	}
	if err := m.api.WithToken(token).ChangePassword(ctx, current, next); err != nil {
		return m.handleSessionError(err)
	}
	return nil
}

// RefreshToken swaps the stored token for a fresh one
func (m *Manager) RefreshToken(ctx context.Context) error {
	token, err := m.requireTraditional()
	if err != nil {
		return err
	}

	resp, err := m.api.WithToken(token).RefreshToken(ctx)
	if err != nil {
		return m.handleSessionError(err)
	}
	if err := m.persist(resp.Token, resp.User); err != nil {
		return err
	}
	m.dispatch(Action{Type: ActionAuthSuccess, User: resp.User, Token: resp.Token})
	return nil
}

// MakeCurrentUserAdmin asks the server to promote the active user. For an
// email/password session the stored user (and token, if reissued) is replaced.
func (m *Manager) MakeCurrentUserAdmin(ctx context.Context) (*client.User, error) {
	snap := m.Snapshot()
	if snap.Active == SourceNone {
		return nil, ErrNotAuthenticated
	}

	resp, err := m.api.MakeAdmin(ctx)
	if err != nil {
		return nil, m.handleSessionError(err)
	}
	if snap.Active != SourceTraditional {
		return resp.User, nil
	}

	if err := m.persist(resp.Token, resp.User); err != nil {
		return nil, err
	}
	m.dispatch(Action{Type: ActionAuthSuccess, User: resp.User, Token: m.pickToken(resp.Token)})
	return resp.User, nil
}

func (m *Manager) pickToken(issued string) string {
	if issued != "" {
		return issued
	}
	return m.traditionalToken()
}

// SyncProvider polls the identity provider once. While it reports signed-in
// its identity and token are the active ones.
func (m *Manager) SyncProvider(ctx context.Context) error {
	if m.provider == nil {
		return nil
	}

	ps, err := m.provider.Session(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Identity provider check failed")
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if ps == nil {
		ps = &ProviderSession{}
	}

	m.mu.Lock()
	m.ps = *ps
	if !ps.SignedIn || ps.User == nil {
		m.ps = ProviderSession{}
	}
	m.publishLocked()
	return nil
}

// SignOutProvider ends only the provider session; an email/password session
// becomes active again.
func (m *Manager) SignOutProvider(ctx context.Context) error {
	if m.provider != nil {
		if err := m.provider.SignOut(ctx); err != nil {
			return fmt.Errorf("failed to sign out of identity provider: %w", err)
		}
	}

	m.mu.Lock()
	m.ps = ProviderSession{}
	m.publishLocked()
	return nil
}

// ClearError drops the last error message
func (m *Manager) ClearError() {
	m.dispatch(Action{Type: ActionClearError})
}

// Diagnostics reports which storage keys are present, including legacy ones
type Diagnostics struct {
	HasToken        bool
	HasUser         bool
	HasClerkSession bool
	LegacyToken     bool
	LegacyUser      bool
}

// Diagnose inspects storage. Legacy keys are reported, never migrated or written.
func (m *Manager) Diagnose() Diagnostics {
	d := Diagnostics{
		HasToken:        storage.Has(m.store, storage.KeyToken),
		HasUser:         storage.Has(m.store, storage.KeyUser),
		HasClerkSession: storage.Has(m.store, storage.KeyClerkSession),
		LegacyToken:     storage.Has(m.store, storage.LegacyKeyToken),
		LegacyUser:      storage.Has(m.store, storage.LegacyKeyUser),
	}
	if d.LegacyToken || d.LegacyUser {
		m.logger.Warn().
			Bool("legacy_token", d.LegacyToken).
			Bool("legacy_user", d.LegacyUser).
			Msg("Found session keys from an older release; they are ignored")
	}
	return d
}
