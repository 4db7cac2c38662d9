// Package cookies manages the http-only auth cookie triple.
package cookies

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookie     = "accessToken"
	RefreshCookie    = "refreshToken"
	RememberMeCookie = "rememberMe"
)

// RememberMeMaxAge mirrors the refresh token lifetime.
const RememberMeMaxAge = 12 * time.Hour

// Manager sets and clears auth cookies with environment-dependent flags.
// Clearing must reuse the exact attribute combination used at set time,
// otherwise browsers ignore the deletion.
type Manager struct {
	production bool
}

// NewManager builds a cookie manager. In production cookies are Secure with
// SameSite=None (cross-site frontend); elsewhere SameSite=Lax without Secure.
func NewManager(production bool) *Manager {
	return &Manager{production: production}
}

// SetAuthCookies attaches the access/refresh/rememberMe cookies to the
// response. With rememberMe the cookies persist for the refresh lifetime,
// otherwise they are session-scoped.
func (m *Manager) SetAuthCookies(c *gin.Context, accessToken, refreshToken string, rememberMe bool) {
	maxAge := 0
	if rememberMe {
		maxAge = int(RememberMeMaxAge.Seconds())
	}

	m.set(c, AccessCookie, accessToken, maxAge)
	m.set(c, RefreshCookie, refreshToken, maxAge)
	rememberValue := "false"
	if rememberMe {
		rememberValue = "true"
	}
	m.set(c, RememberMeCookie, rememberValue, maxAge)
}

// ClearAuthCookies removes all three cookies using matching attributes.
func (m *Manager) ClearAuthCookies(c *gin.Context) {
	m.set(c, AccessCookie, "", -1)
	m.set(c, RefreshCookie, "", -1)
	m.set(c, RememberMeCookie, "", -1)
}

func (m *Manager) set(c *gin.Context, name, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if m.production {
		sameSite = http.SameSiteNoneMode
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   m.production,
		HttpOnly: true,
		SameSite: sameSite,
	})
}
