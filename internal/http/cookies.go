package httpx

import (
	"net/http"
	"time"
)

// Cookie names. Everything listed in credentialCookies is cleared on logout,
// including forced logout; stale SSO state must not survive a terminated
// session.
const (
	SessionCookie       = "hms_session"
	ssoStateCookie      = "hms_sso_state"
	ssoNonceCookie      = "hms_sso_nonce"
	postLoginCookie     = "hms_post_login"
	ssoCookieTTL        = 10 * time.Minute
	postLoginCookieTTL  = 10 * time.Minute
	clearedCookieMaxAge = -1
)

var credentialCookies = []string{
	SessionCookie,
	ssoStateCookie,
	ssoNonceCookie,
	postLoginCookie,
}

// CookieWriter issues and clears the application's cookies with consistent
// attributes.
type CookieWriter struct {
	Domain string
	Secure bool
}

func (c CookieWriter) base(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetSession issues the session cookie, expiring with the session itself.
func (c CookieWriter) SetSession(w http.ResponseWriter, sessionID string, expiresAt time.Time) {
	cookie := c.base(SessionCookie, sessionID)
	cookie.Expires = expiresAt
	http.SetCookie(w, cookie)
}

// SetSSOState stashes the state/nonce pair for the SSO callback.
func (c CookieWriter) SetSSOState(w http.ResponseWriter, state, nonce string) {
	stateCookie := c.base(ssoStateCookie, state)
	stateCookie.MaxAge = int(ssoCookieTTL.Seconds())
	http.SetCookie(w, stateCookie)

	nonceCookie := c.base(ssoNonceCookie, nonce)
	nonceCookie.MaxAge = int(ssoCookieTTL.Seconds())
	http.SetCookie(w, nonceCookie)
}

// SetPostLoginRedirect remembers where to send the user after login.
func (c CookieWriter) SetPostLoginRedirect(w http.ResponseWriter, path string) {
	cookie := c.base(postLoginCookie, path)
	cookie.MaxAge = int(postLoginCookieTTL.Seconds())
	http.SetCookie(w, cookie)
}

// Clear expires a single cookie.
func (c CookieWriter) Clear(w http.ResponseWriter, name string) {
	cookie := c.base(name, "")
	cookie.MaxAge = clearedCookieMaxAge
	http.SetCookie(w, cookie)
}

// ClearCredentials expires every credential cookie. Clearing cannot fail per
// cookie, so exhaustive here means every name is always written, regardless of
// what else went wrong during logout.
func (c CookieWriter) ClearCredentials(w http.ResponseWriter) {
	for _, name := range credentialCookies {
		c.Clear(w, name)
	}
}
