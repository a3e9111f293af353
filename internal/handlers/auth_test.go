package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akozhevin/storefront/internal/models"
	"github.com/akozhevin/storefront/internal/service/token"
)

func registerAndLogin(t *testing.T, env *testEnv, h *AuthHandler, email string) (string, *http.Cookie) {
	t.Helper()

	_, c := env.doJSONRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"email": email, "name": "Test", "password": "password123",
	})
	require.NoError(t, h.Register(c))

	rec, c2 := env.doJSONRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": "password123",
	})
	require.NoError(t, h.Login(c2))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)

	var refresh *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "refreshToken" {
			refresh = ck
		}
	}
	require.NotNil(t, refresh)
	return resp.AccessToken, refresh
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	h := &AuthHandler{DB: env.DB, Tokens: env.tokens()}

	_, c := env.doJSONRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "dup@example.com", "name": "A", "password": "password123",
	})
	require.NoError(t, h.Register(c))

	_, c2 := env.doJSONRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "dup@example.com", "name": "B", "password": "password123",
	})
	err := h.Register(c2)
	require.Equal(t, http.StatusConflict, httpStatus(t, err))
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	h := &AuthHandler{DB: env.DB, Tokens: env.tokens()}

	_, c := env.doJSONRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "user@example.com", "name": "A", "password": "password123",
	})
	require.NoError(t, h.Register(c))

	_, c2 := env.doJSONRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "user@example.com", "password": "wrong-password",
	})
	err := h.Login(c2)
	require.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	h := &AuthHandler{DB: env.DB, Tokens: env.tokens()}

	_, refresh := registerAndLogin(t, env, h, "rotate@example.com")

	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/refresh", nil, refresh)
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// the old refresh token was revoked by the rotation
	_, c2 := env.doJSONRequest(http.MethodPost, "/api/auth/refresh", nil, refresh)
	err := h.Refresh(c2)
	require.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
}

func TestLogoutAllInvalidatesEveryRefresh(t *testing.T) {
	env := newTestEnv(t)
	h := &AuthHandler{DB: env.DB, Tokens: env.tokens()}

	_, refresh := registerAndLogin(t, env, h, "everywhere@example.com")

	var user models.User
	require.NoError(t, env.DB.Where("email = ?", "everywhere@example.com").First(&user).Error)

	_, c := env.doJSONRequest(http.MethodPost, "/api/auth/logout-all", nil)
	asUser(c, user.ID, user.Role)
	require.NoError(t, h.LogoutAll(c))

	// version bumped: the still-unrevoked refresh token no longer validates
	_, c2 := env.doJSONRequest(http.MethodPost, "/api/auth/refresh", nil, refresh)
	err := h.Refresh(c2)
	require.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
}

func TestPasswordChangeBumpsTokenVersion(t *testing.T) {
	env := newTestEnv(t)
	authH := &AuthHandler{DB: env.DB, Tokens: env.tokens()}
	userH := &UserHandler{DB: env.DB, Tokens: env.tokens()}

	_, refresh := registerAndLogin(t, env, authH, "pwchange@example.com")

	var user models.User
	require.NoError(t, env.DB.Where("email = ?", "pwchange@example.com").First(&user).Error)

	_, c := env.doJSONRequest(http.MethodPatch, "/api/users/me", map[string]string{
		"old_password": "password123", "password": "newpassword456",
	})
	asUser(c, user.ID, user.Role)
	require.NoError(t, userH.UpdateMe(c))

	_, c2 := env.doJSONRequest(http.MethodPost, "/api/auth/refresh", nil, refresh)
	err := authH.Refresh(c2)
	require.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
}

func TestStaleRefreshRowIsRevoked(t *testing.T) {
	env := newTestEnv(t)
	svc := env.tokens()
	h := &AuthHandler{DB: env.DB, Tokens: svc}

	_, refresh := registerAndLogin(t, env, h, "stale@example.com")

	var user models.User
	require.NoError(t, env.DB.Where("email = ?", "stale@example.com").First(&user).Error)
	require.NoError(t, svc.BumpVersion(user.ID))

	_, _, err := svc.Rotate(refresh.Value)
	require.ErrorIs(t, err, token.ErrStaleRefresh)

	var stored models.RefreshToken
	require.NoError(t, env.DB.Where("token = ?", refresh.Value).First(&stored).Error)
	require.True(t, stored.Revoked)
}
