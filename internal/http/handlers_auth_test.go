package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/afyacare/hms/internal/domain/auth"
	mockauth "github.com/afyacare/hms/internal/mocks/auth"
	"github.com/afyacare/hms/internal/ports"
)

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func TestLogin_Success(t *testing.T) {
	f := newWebFixture(t, webDoctor())

	rec := f.do(postJSON("/auth/login", `{"email":"doctor@hospital.test","password":"correct-horse"}`))

	require.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)

	var resp struct {
		Authenticated bool                 `json:"authenticated"`
		User          domainauth.Principal `json:"user"`
		ExpiresAt     time.Time            `json:"expires_at"`
		WarnAt        time.Time            `json:"warn_at"`
		Redirect      string               `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Authenticated)
	assert.Equal(t, "user-doctor", resp.User.ID)
	assert.Equal(t, "/dashboard", resp.Redirect)
	assert.Equal(t, f.clock.Now().Add(time.Hour), resp.ExpiresAt.UTC())
	assert.Equal(t, resp.ExpiresAt.Add(-f.monitor.WarnThreshold()), resp.WarnAt)
}

func TestLogin_HonorsRequestedRedirect(t *testing.T) {
	f := newWebFixture(t, webDoctor())

	rec := f.do(postJSON("/auth/login", `{"email":"doctor@hospital.test","password":"correct-horse","redirect":"/api/patients"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redirect":"/api/patients"`)
}

func TestLogin_RejectsOffsiteRedirect(t *testing.T) {
	f := newWebFixture(t, webDoctor())

	rec := f.do(postJSON("/auth/login", `{"email":"doctor@hospital.test","password":"correct-horse","redirect":"https://evil.example/"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redirect":"/dashboard"`)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newWebFixture(t, webDoctor())

	rec := f.do(postJSON("/auth/login", `{"email":"doctor@hospital.test","password":"wrong"}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_credentials")
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogin_PendingAccount(t *testing.T) {
	pending := webDoctor()
	pending.Status = domainauth.StatusPending
	f := newWebFixture(t, pending)

	rec := f.do(postJSON("/auth/login", `{"email":"doctor@hospital.test","password":"correct-horse"}`))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "account_not_active")
}

func TestLogin_AdminLoginPathSharesHandler(t *testing.T) {
	admin := domainauth.Principal{
		ID:     "user-root",
		Email:  "root@hospital.test",
		Role:   domainauth.RoleSuperadmin,
		Status: domainauth.StatusActive,
	}
	f := newWebFixture(t, admin)
	f.provider.Accounts["root@hospital.test"] = mockauth.FakeAccount{
		ID:       "user-root",
		Email:    "root@hospital.test",
		Password: "root-secret",
	}

	rec := f.do(postJSON("/admin/login", `{"email":"root@hospital.test","password":"root-secret"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redirect":"/admin"`)
}

func TestSignup_CreatesPendingPatient(t *testing.T) {
	f := newWebFixture(t)

	rec := f.do(postJSON("/auth/signup", `{"full_name":"Juma Odhiambo","email":"juma@example.test","password":"long-enough-pw"}`))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)

	stored, err := f.profiles.GetByEmail(context.Background(), "juma@example.test")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RolePatient, stored.Role)
	assert.Equal(t, domainauth.StatusPending, stored.Status)
}

func TestSignup_RejectsShortPassword(t *testing.T) {
	f := newWebFixture(t)

	rec := f.do(postJSON("/auth/signup", `{"full_name":"Juma","email":"juma@example.test","password":"short"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout_TearsDownSessionAndCookies(t *testing.T) {
	f := newWebFixture(t, webDoctor())
	sess := f.login(t, "doctor@hospital.test", "correct-horse")

	rec := f.do(withSession(postJSON("/auth/logout", ""), sess.ID))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, f.sessions.Len())
	assert.False(t, f.monitor.Watching(sess.ID))
	assert.Contains(t, f.provider.SignOutCalls, sess.AccessToken)

	cleared := clearedCookieNames(rec)
	for _, name := range credentialCookies {
		assert.True(t, cleared[name], "expected %s cleared", name)
	}
}

func TestLogout_ClearsCookiesEvenWhenTeardownFails(t *testing.T) {
	f := newWebFixture(t, webDoctor())
	sess := f.login(t, "doctor@hospital.test", "correct-horse")

	f.provider.SignOutFunc = func(context.Context, string) error {
		return errors.New("idp unreachable")
	}
	f.sessions.DeleteFunc = func(context.Context, string) error {
		return errors.New("redis down")
	}

	rec := f.do(withSession(postJSON("/auth/logout", ""), sess.ID))

	assert.Equal(t, http.StatusOK, rec.Code)
	cleared := clearedCookieNames(rec)
	for _, name := range credentialCookies {
		assert.True(t, cleared[name], "expected %s cleared", name)
	}
}

func TestLogout_WithoutSessionIsNoop(t *testing.T) {
	f := newWebFixture(t)

	rec := f.do(postJSON("/auth/logout", ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/auth/login")
}

func TestStatus_ReportsAuthenticatedSession(t *testing.T) {
	f := newWebFixture(t, webDoctor())
	sess := f.login(t, "doctor@hospital.test", "correct-horse")

	rec := f.do(withSession(httptest.NewRequest(http.MethodGet, "/auth/status", nil), sess.ID))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)
	assert.Contains(t, rec.Body.String(), "user-doctor")
}

func TestStatus_AnonymousIs200(t *testing.T) {
	f := newWebFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)
	assert.NotContains(t, rec.Body.String(), "reason")
}

func TestStatus_ExpiredSessionCarriesReason(t *testing.T) {
	f := newWebFixture(t, webDoctor())
	sess := f.login(t, "doctor@hospital.test", "correct-horse")
	f.clock.Advance(2 * time.Hour)

	rec := f.do(withSession(httptest.NewRequest(http.MethodGet, "/auth/status", nil), sess.ID))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)
	assert.Contains(t, rec.Body.String(), ReasonSessionExpired)
}

func TestRefresh_ExtendsSession(t *testing.T) {
	f := newWebFixture(t, webDoctor())
	sess := f.login(t, "doctor@hospital.test", "correct-horse")

	f.clock.Advance(30 * time.Minute)

	rec := f.do(withSession(postJSON("/auth/refresh", ""), sess.ID))

	require.Equal(t, http.StatusOK, rec.Code)

	refreshed := sessionCookie(t, rec)
	assert.Equal(t, sess.ID, refreshed.Value)

	stored, err := f.sessions.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.True(t, stored.ExpiresAt.After(sess.ExpiresAt))
}

func TestRefresh_WithoutSessionIs401(t *testing.T) {
	f := newWebFixture(t)

	rec := f.do(postJSON("/auth/refresh", ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh_ProviderFailureIs502(t *testing.T) {
	f := newWebFixture(t, webDoctor())
	sess := f.login(t, "doctor@hospital.test", "correct-horse")

	f.provider.RefreshFunc = func(context.Context, string) (ports.ProviderSession, error) {
		return ports.ProviderSession{}, ports.ErrTokenRejected
	}

	rec := f.do(withSession(postJSON("/auth/refresh", ""), sess.ID))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "refresh_failed")

	// The old session remains usable until it actually expires.
	stored, err := f.sessions.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ExpiresAt, stored.ExpiresAt)
}

func TestSSOBegin_RedirectsToIdP(t *testing.T) {
	f := newWebFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/sso", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://fake-idp/auth", rec.Header().Get("Location"))

	byName := make(map[string]string)
	for _, c := range rec.Result().Cookies() {
		byName[c.Name] = c.Value
	}
	assert.Equal(t, "state-1", byName[ssoStateCookie])
	assert.Equal(t, "nonce-1", byName[ssoNonceCookie])
}

func TestSSOCallback_ProvisionsAndRedirects(t *testing.T) {
	f := newWebFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/sso/callback?code=abc&state=state-1", nil)
	req.AddCookie(&http.Cookie{Name: ssoStateCookie, Value: "state-1"})
	req.AddCookie(&http.Cookie{Name: ssoNonceCookie, Value: "nonce-1"})

	rec := f.do(req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	assert.NotNil(t, sessionCookie(t, rec))

	provisioned, err := f.profiles.GetByID(context.Background(), "idp-nurse-1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleNurse, provisioned.Role)
	assert.Equal(t, domainauth.StatusActive, provisioned.Status)
}

func TestSSOCallback_StateMismatchFailsClosed(t *testing.T) {
	f := newWebFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/sso/callback?code=abc&state=forged", nil)
	req.AddCookie(&http.Cookie{Name: ssoStateCookie, Value: "state-1"})
	req.AddCookie(&http.Cookie{Name: ssoNonceCookie, Value: "nonce-1"})

	rec := f.do(req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login?reason=auth_error", rec.Header().Get("Location"))
	assert.True(t, clearedCookieNames(rec)[SessionCookie])
	assert.Equal(t, 0, f.sessions.Len())
}

func TestSSOCallback_MissingStateCookieFailsClosed(t *testing.T) {
	f := newWebFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/sso/callback?code=abc&state=state-1", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login?reason=auth_error", rec.Header().Get("Location"))
}

func TestSetup_LifecycleOverHTTP(t *testing.T) {
	f := newWebFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/setup", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"setup_required":true`)

	rec = f.do(postJSON("/setup", `{"full_name":"Root Admin","email":"root@hospital.test","password":"first-superadmin"}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/setup", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"setup_required":false`)

	rec = f.do(postJSON("/setup", `{"full_name":"Second","email":"second@hospital.test","password":"another-password"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "setup_complete")
}
