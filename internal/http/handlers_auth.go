package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/afyacare/hms/internal/domain/auth"
	"github.com/afyacare/hms/internal/service"
)

// AuthHandlers serves the authentication surface: password login, patient
// signup, logout, session status/refresh, and the staff SSO flow.
type AuthHandlers struct {
	Auth    *service.AuthService
	Admin   *service.UserAdminService
	Monitor *service.SessionMonitor // optional
	Cookies CookieWriter
	// PublicURL is the externally visible base URL, used to build the SSO
	// callback address.
	PublicURL string
	Logger    *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Redirect string `json:"redirect,omitempty"`
}

type sessionResponse struct {
	Authenticated bool                  `json:"authenticated"`
	User          *domainauth.Principal `json:"user,omitempty"`
	ExpiresAt     *time.Time            `json:"expires_at,omitempty"`
	WarnAt        *time.Time            `json:"warn_at,omitempty"`
	Redirect      string                `json:"redirect,omitempty"`
	Reason        string                `json:"reason,omitempty"`
}

// handleLogin performs password login and issues the session cookie.
func (h *AuthHandlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeLoginError(w, err)
		return
	}

	h.Cookies.SetSession(w, result.Session.ID, result.Session.ExpiresAt)

	redirect := safeRedirectPath(req.Redirect)
	if redirect == "/" {
		redirect = domainauth.LandingPath(result.Principal.Role)
	}
	WriteJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		User:          &result.Principal,
		ExpiresAt:     &result.Session.ExpiresAt,
		WarnAt:        h.warnAt(result.Session),
		Redirect:      redirect,
	})
}

func (h *AuthHandlers) writeLoginError(w http.ResponseWriter, err error) {
	var notActive *service.AccountNotActiveError
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: ReasonInvalidCreds, Err: errors.New("invalid email or password")})
	case errors.As(err, &notActive):
		WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: ReasonAccountNotActive, Err: err})
	case errors.Is(err, service.ErrProfileMissing):
		WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: ReasonAuthError, Err: errors.New("account is not provisioned")})
	default:
		h.logger().Error("login failed", "err", err)
		WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: ReasonAuthError, Err: errors.New("authentication temporarily unavailable")})
	}
}

// handleSignup registers a patient portal account. The account stays pending
// until staff approve it.
func (h *AuthHandlers) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	principal, err := h.Admin.SignupPatient(r.Context(), service.SignupInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "signup_failed", Err: err})
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]string{
		"id":     principal.ID,
		"status": string(principal.Status),
	})
}

// handleLogout tears the session down everywhere. Cookie clearing happens
// unconditionally; even a completely failed server-side teardown must not
// leave credentials in the browser.
func (h *AuthHandlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		if h.Monitor != nil {
			h.Monitor.Unwatch(cookie.Value)
		}
		if err := h.Auth.Logout(r.Context(), cookie.Value); err != nil {
			h.logger().WarnContext(r.Context(), "logout incomplete", "err", err)
		}
	}

	h.Cookies.ClearCredentials(w)
	WriteJSON(w, http.StatusOK, map[string]string{"redirect": "/auth/login"})
}

// handleStatus reports the current session without requiring one.
func (h *AuthHandlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := ""
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		sessionID = cookie.Value
	}

	result, err := h.Auth.CurrentUser(r.Context(), sessionID)
	if err != nil {
		WriteJSON(w, http.StatusOK, sessionResponse{
			Authenticated: false,
			Reason:        statusReason(err),
		})
		return
	}

	WriteJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		User:          &result.Principal,
		ExpiresAt:     &result.Session.ExpiresAt,
		WarnAt:        h.warnAt(result.Session),
	})
}

func statusReason(err error) string {
	var notActive *service.AccountNotActiveError
	switch {
	case errors.Is(err, service.ErrNoSession):
		return ""
	case errors.Is(err, service.ErrSessionExpired):
		return ReasonSessionExpired
	case errors.As(err, &notActive):
		return ReasonAccountNotActive
	default:
		return ReasonAuthError
	}
}

// handleRefresh extends the session via the provider refresh grant.
func (h *AuthHandlers) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required", Err: errors.New("no session")})
		return
	}

	sess, err := h.Auth.Refresh(r.Context(), cookie.Value)
	if err != nil {
		// A failed refresh leaves the old session untouched; the client keeps
		// it until expiry. Only report what happened.
		code := http.StatusUnauthorized
		if errors.Is(err, service.ErrRefreshFailed) {
			code = http.StatusBadGateway
		}
		WriteError(w, ErrorParams{Code: code, ErrCode: "refresh_failed", Err: err})
		return
	}

	h.Cookies.SetSession(w, sess.ID, sess.ExpiresAt)
	WriteJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		ExpiresAt:     &sess.ExpiresAt,
		WarnAt:        h.warnAt(sess),
	})
}

// warnAt computes the instant the expiry warning for sess becomes due.
func (h *AuthHandlers) warnAt(sess domainauth.Session) *time.Time {
	if h.Monitor == nil {
		return nil
	}
	at := sess.ExpiresAt.Add(-h.Monitor.WarnThreshold())
	return &at
}

// handleSSOBegin starts the staff SSO flow and redirects to the IdP.
func (h *AuthHandlers) handleSSOBegin(w http.ResponseWriter, r *http.Request) {
	callback := strings.TrimRight(h.PublicURL, "/") + "/auth/sso/callback"
	result, err := h.Auth.BeginSSO(r.Context(), callback)
	if err != nil {
		if errors.Is(err, service.ErrSSONotConfigured) {
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "sso_not_configured", Err: err})
			return
		}
		h.logger().Error("sso begin failed", "err", err)
		WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: ReasonAuthError, Err: errors.New("sso unavailable")})
		return
	}

	h.Cookies.SetSSOState(w, result.State, result.Nonce)
	if redirect := safeRedirectPath(r.URL.Query().Get("redirect")); redirect != "/" {
		h.Cookies.SetPostLoginRedirect(w, redirect)
	}
	http.Redirect(w, r, result.AuthURL, http.StatusSeeOther)
}

// handleSSOCallback completes the SSO flow: state check against the cookie,
// code exchange, session issue, redirect to the landing page.
func (h *AuthHandlers) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code, state := query.Get("code"), query.Get("state")

	stateCookie, stateErr := r.Cookie(ssoStateCookie)
	nonceCookie, nonceErr := r.Cookie(ssoNonceCookie)
	if stateErr != nil || nonceErr != nil || state == "" || state != stateCookie.Value {
		h.Cookies.ClearCredentials(w)
		http.Redirect(w, r, LoginRedirectURL(ReasonAuthError), http.StatusSeeOther)
		return
	}

	result, err := h.Auth.CompleteSSO(r.Context(), service.CompleteSSOInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		h.logger().WarnContext(r.Context(), "sso callback rejected", "err", err)
		h.Cookies.ClearCredentials(w)
		http.Redirect(w, r, LoginRedirectURL(h.ssoFailureReason(err)), http.StatusSeeOther)
		return
	}

	redirect := h.popPostLoginRedirect(w, r)
	if redirect == "/" {
		redirect = domainauth.LandingPath(result.Principal.Role)
	}

	h.Cookies.Clear(w, ssoStateCookie)
	h.Cookies.Clear(w, ssoNonceCookie)
	h.Cookies.SetSession(w, result.Session.ID, result.Session.ExpiresAt)
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

func (h *AuthHandlers) ssoFailureReason(err error) string {
	var notActive *service.AccountNotActiveError
	if errors.As(err, &notActive) {
		return ReasonAccountNotActive
	}
	return ReasonAuthError
}

// popPostLoginRedirect returns the stashed post-login target and clears it.
func (h *AuthHandlers) popPostLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(postLoginCookie)
	if err != nil {
		return "/"
	}
	h.Cookies.Clear(w, postLoginCookie)

	candidate, unescapeErr := url.QueryUnescape(cookie.Value)
	if unescapeErr != nil {
		return "/"
	}
	return safeRedirectPath(candidate)
}
