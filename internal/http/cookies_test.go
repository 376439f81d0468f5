package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieWriter_SetSession(t *testing.T) {
	rec := httptest.NewRecorder()
	expires := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	CookieWriter{Domain: "hospital.test", Secure: true}.SetSession(rec, "sess-1", expires)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, SessionCookie, c.Name)
	assert.Equal(t, "sess-1", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, "hospital.test", c.Domain)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.True(t, c.Expires.Equal(expires))
}

func TestCookieWriter_ClearCredentials(t *testing.T) {
	rec := httptest.NewRecorder()

	CookieWriter{}.ClearCredentials(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, len(credentialCookies))

	cleared := make(map[string]bool)
	for _, c := range cookies {
		assert.Empty(t, c.Value, c.Name)
		assert.Negative(t, c.MaxAge, c.Name)
		cleared[c.Name] = true
	}
	for _, name := range credentialCookies {
		assert.True(t, cleared[name], "expected %s to be cleared", name)
	}
}

func TestCookieWriter_SetSSOState(t *testing.T) {
	rec := httptest.NewRecorder()

	CookieWriter{}.SetSSOState(rec, "state-1", "nonce-1")

	byName := make(map[string]*http.Cookie)
	for _, c := range rec.Result().Cookies() {
		byName[c.Name] = c
	}
	require.Contains(t, byName, ssoStateCookie)
	require.Contains(t, byName, ssoNonceCookie)
	assert.Equal(t, "state-1", byName[ssoStateCookie].Value)
	assert.Equal(t, "nonce-1", byName[ssoNonceCookie].Value)
	assert.Positive(t, byName[ssoStateCookie].MaxAge)
}
