package cookies

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordCookies(t *testing.T, production, rememberMe bool, clear bool) []*http.Cookie {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	m := NewManager(production)
	if clear {
		m.ClearAuthCookies(c)
	} else {
		m.SetAuthCookies(c, "access", "refresh", rememberMe)
	}
	return w.Result().Cookies()
}

func byName(cs []*http.Cookie, name string) *http.Cookie {
	for _, c := range cs {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSetAuthCookiesDevelopment(t *testing.T) {
	cs := recordCookies(t, false, false, false)
	require.Len(t, cs, 3)

	access := byName(cs, AccessCookie)
	require.NotNil(t, access)
	assert.Equal(t, "access", access.Value)
	assert.True(t, access.HttpOnly)
	assert.False(t, access.Secure)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
	// session-scoped without rememberMe
	assert.Equal(t, 0, access.MaxAge)
}

func TestSetAuthCookiesProductionRememberMe(t *testing.T) {
	cs := recordCookies(t, true, true, false)
	require.Len(t, cs, 3)

	refresh := byName(cs, RefreshCookie)
	require.NotNil(t, refresh)
	assert.True(t, refresh.Secure)
	assert.Equal(t, http.SameSiteNoneMode, refresh.SameSite)
	assert.Equal(t, int(RememberMeMaxAge.Seconds()), refresh.MaxAge)

	remember := byName(cs, RememberMeCookie)
	require.NotNil(t, remember)
	assert.Equal(t, "true", remember.Value)
}

func TestClearAuthCookiesMatchesSetFlags(t *testing.T) {
	cs := recordCookies(t, true, false, true)
	require.Len(t, cs, 3)
	for _, cookie := range cs {
		assert.Empty(t, cookie.Value)
		assert.Equal(t, -1, cookie.MaxAge)
		assert.True(t, cookie.Secure)
		assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
	}
}
