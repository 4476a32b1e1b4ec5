package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderlust-dev/wanderlust/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t, nil)

	token, user := env.register(t, "Jane Doe", "Jane@Example.com", "secret123")
	assert.NotEmpty(t, token)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)

	code, resp := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Jane Again", "email": "jane@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, resp.Success)
	assert.Equal(t, "User already exists with this email", resp.Message)

	code, resp = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "jane@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid email or password", resp.Message)

	code, resp = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "JANE@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	login := decode[AuthResponse](t, resp.Data)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, user.ID, login.User.ID)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name string
		body map[string]string
		want string
	}{
		{"missing email", map[string]string{"name": "A", "password": "secret123"}, "Email is required"},
		{"bad email", map[string]string{"name": "A", "email": "nope", "password": "secret123"}, "Email must be a valid email address"},
		{"short password", map[string]string{"name": "A", "email": "a@example.com", "password": "123"}, "Password must be at least 6 characters"},
		{"missing name", map[string]string{"email": "a@example.com", "password": "secret123"}, "Name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := env.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, tt.want, resp.Message)
		})
	}
}

func TestMe_RequiresValidToken(t *testing.T) {
	env := newTestEnv(t, nil)

	code, resp := env.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Missing authorization header", resp.Message)

	code, resp = env.do(t, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid or expired token", resp.Message)

	token, user := env.register(t, "Jane", "jane@example.com", "secret123")
	code, resp = env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, user.ID, decode[UserDetail](t, resp.Data).ID)
}

func TestLogout_RevokesToken(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.register(t, "Jane", "jane@example.com", "secret123")

	code, _ := env.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, code)

	code, resp := env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Token has been revoked", resp.Message)
}

func TestRefreshToken(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.register(t, "Jane", "jane@example.com", "secret123")

	code, resp := env.do(t, http.MethodPost, "/api/auth/refresh-token", token, nil)
	require.Equal(t, http.StatusOK, code)
	fresh := decode[AuthResponse](t, resp.Data).Token
	assert.NotEqual(t, token, fresh)

	code, _ = env.do(t, http.MethodGet, "/api/auth/me", fresh, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.register(t, "Jane", "jane@example.com", "secret123")

	code, resp := env.do(t, http.MethodPut, "/api/auth/change-password", token, map[string]string{
		"current_password": "nope", "new_password": "newsecret",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Current password is incorrect", resp.Message)

	code, _ = env.do(t, http.MethodPut, "/api/auth/change-password", token, map[string]string{
		"current_password": "secret123", "new_password": "newsecret",
	})
	require.Equal(t, http.StatusOK, code)

	code, _ = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "jane@example.com", "password": "newsecret",
	})
	assert.Equal(t, http.StatusOK, code)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.register(t, "Jane", "jane@example.com", "secret123")
	env.register(t, "Sam", "sam@example.com", "secret123")

	code, resp := env.do(t, http.MethodPut, "/api/auth/profile", token, map[string]string{"name": "Jane Doe"})
	require.Equal(t, http.StatusOK, code)
	updated := decode[UserDetail](t, resp.Data)
	assert.Equal(t, "Jane Doe", updated.Name)
	assert.Equal(t, "jane@example.com", updated.Email)

	code, resp = env.do(t, http.MethodPut, "/api/auth/profile", token, map[string]string{"email": "sam@example.com"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Email is already in use", resp.Message)
}

func TestMakeAdmin_FirstUserOnly(t *testing.T) {
	env := newTestEnv(t, nil)
	adminToken := env.admin(t)

	code, resp := env.do(t, http.MethodGet, "/api/auth/me", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.RoleAdmin, decode[UserDetail](t, resp.Data).Role)

	userToken, _ := env.register(t, "Jane", "jane@example.com", "secret123")
	code, resp = env.do(t, http.MethodPost, "/api/auth/make-admin", userToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.False(t, resp.Success)

	code, _ = env.do(t, http.MethodGet, "/api/admin/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, resp = env.do(t, http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(2), resp.Pagination.Total)
}

func TestUpdateUserRole(t *testing.T) {
	env := newTestEnv(t, nil)
	adminToken := env.admin(t)
	_, jane := env.register(t, "Jane", "jane@example.com", "secret123")

	code, resp := env.do(t, http.MethodPatch, "/api/admin/users/"+jane.ID+"/role", adminToken, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.Equal(t, models.RoleAdmin, decode[UserDetail](t, resp.Data).Role)

	code, _ = env.do(t, http.MethodPatch, "/api/admin/users/"+jane.ID+"/role", adminToken, map[string]string{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPatch, "/api/admin/users/"+jane.ID+"/role", adminToken, map[string]string{"role": "user"})
	require.Equal(t, http.StatusOK, code)

	_, resp = env.do(t, http.MethodGet, "/api/auth/me", adminToken, nil)
	self := decode[UserDetail](t, resp.Data)
	code, resp = env.do(t, http.MethodPatch, "/api/admin/users/"+self.ID+"/role", adminToken, map[string]string{"role": "user"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Cannot remove the last admin", resp.Message)
}
