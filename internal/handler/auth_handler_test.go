package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/taskhive-api/internal/models"
	"github.com/noah-isme/taskhive-api/internal/service"
	"github.com/noah-isme/taskhive-api/pkg/config"
	"github.com/noah-isme/taskhive-api/pkg/cookies"
)

type memoryTokenRepo struct {
	rows []*models.RefreshToken
}

func (r *memoryTokenRepo) Create(_ context.Context, token *models.RefreshToken) error {
	copied := *token
	r.rows = append(r.rows, &copied)
	return nil
}

func (r *memoryTokenRepo) FindActiveBySession(_ context.Context, userID, sessionID string) (*models.RefreshToken, error) {
	for i := len(r.rows) - 1; i >= 0; i-- {
		row := r.rows[i]
		if row.UserID == userID && row.SessionID == sessionID && !row.Revoked && row.ExpiresAt.After(time.Now()) {
			return row, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memoryTokenRepo) RevokeSession(_ context.Context, userID, sessionID string) error {
	for _, row := range r.rows {
		if row.UserID == userID && row.SessionID == sessionID {
			row.Revoked = true
		}
	}
	return nil
}

func (r *memoryTokenRepo) RevokeAllForUser(_ context.Context, userID string) error {
	for _, row := range r.rows {
		if row.UserID == userID {
			row.Revoked = true
		}
	}
	return nil
}

type staticUserLoader struct {
	user *models.User
}

func (l *staticUserLoader) FindByID(_ context.Context, _ string) (*models.User, error) {
	if l.user == nil {
		return nil, sql.ErrNoRows
	}
	return l.user, nil
}

func newTokenService() *service.TokenService {
	cfg := config.JWTConfig{
		Secret:        "test-secret",
		ResetSecret:   "test-reset",
		Issuer:        "taskhive-test",
		AccessExpiry:  30 * time.Minute,
		RefreshExpiry: 12 * time.Hour,
		ResetExpiry:   30 * time.Minute,
	}
	user := &models.User{ID: "u1", Email: "user@example.com", Username: "user", TokenVersion: 1}
	return service.NewTokenService(&memoryTokenRepo{}, &staticUserLoader{user: user}, nil, cfg)
}

func cookieByName(t *testing.T, res *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range res.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestClearAuthCookies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(nil, nil, cookies.NewManager(false))

	r := gin.New()
	r.GET("/cookies/clear-auth-cookies", h.ClearAuthCookies)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cookies/clear-auth-cookies", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	for _, name := range []string{cookies.AccessCookie, cookies.RefreshCookie, cookies.RememberMeCookie} {
		cookie := cookieByName(t, w.Result(), name)
		require.NotNil(t, cookie, name)
		assert.Less(t, cookie.MaxAge, 0, name)
	}
}

func TestRefreshTokensMissingCookies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(nil, newTokenService(), cookies.NewManager(false))

	r := gin.New()
	r.GET("/auth/tokens/refresh-tokens", h.RefreshTokens)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/tokens/refresh-tokens", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshTokensRotates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := newTokenService()
	h := NewAuthHandler(nil, tokens, cookies.NewManager(false))

	user := &models.User{ID: "u1", Email: "user@example.com", TokenVersion: 1}
	access, err := tokens.CreateAccessToken(user, "s1")
	require.NoError(t, err)
	refresh, err := tokens.CreateRefreshToken(context.Background(), "u1", "s1")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/auth/tokens/refresh-tokens", h.RefreshTokens)

	req := httptest.NewRequest(http.MethodGet, "/auth/tokens/refresh-tokens?rememberMe=true", nil)
	req.AddCookie(&http.Cookie{Name: cookies.AccessCookie, Value: access})
	req.AddCookie(&http.Cookie{Name: cookies.RefreshCookie, Value: refresh})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	newRefresh := cookieByName(t, w.Result(), cookies.RefreshCookie)
	require.NotNil(t, newRefresh)
	assert.NotEqual(t, refresh, newRefresh.Value)
	assert.Greater(t, newRefresh.MaxAge, 0)

	// Replaying the consumed refresh cookie fails: rotation revoked it.
	replay := httptest.NewRequest(http.MethodGet, "/auth/tokens/refresh-tokens", nil)
	replay.AddCookie(&http.Cookie{Name: cookies.AccessCookie, Value: access})
	replay.AddCookie(&http.Cookie{Name: cookies.RefreshCookie, Value: refresh})
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, replay)

	assert.Equal(t, http.StatusUnauthorized, w2.Code)
}
