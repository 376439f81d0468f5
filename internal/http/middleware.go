package httpx

import (
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/afyacare/hms/internal/domain/auth"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// publicPaths are reachable without a session. Everything else is protected.
var publicPaths = map[string]struct{}{
	"/":            {},
	"/auth/login":  {},
	"/auth/signup": {},
	"/setup":       {},
	"/admin/login": {},
}

// PublicPath reports whether the path requires no session.
func PublicPath(path string) bool {
	_, ok := publicPaths[path]
	return ok
}

// authEntryPath reports whether the path is a login/signup surface that an
// already-authenticated user has no business visiting.
func authEntryPath(path string) bool {
	switch path {
	case "/auth/login", "/auth/signup", "/admin/login":
		return true
	}
	return false
}

// RouteAction is the outcome of classifying a request.
type RouteAction int

const (
	// ActionContinue lets the request proceed to its handler.
	ActionContinue RouteAction = iota
	// ActionRedirect sends the client to RouteDecision.Location.
	ActionRedirect
)

// RouteDecision is the result of ClassifyRoute.
type RouteDecision struct {
	Action   RouteAction
	Location string
}

// ClassifyRoute is the pure page-level routing rule: given a path, whether a
// session is present, and the session's role, decide whether the request
// proceeds or is redirected. It does no I/O; the guard supplies the inputs.
//
// Rules:
//   - authenticated users on a login/signup page are sent to their landing page;
//   - unauthenticated users on a protected page are sent to /auth/login;
//   - everything else continues.
func ClassifyRoute(path string, authenticated bool, role domainauth.Role) RouteDecision {
	if authenticated && authEntryPath(path) {
		return RouteDecision{Action: ActionRedirect, Location: domainauth.LandingPath(role)}
	}
	if !authenticated && !PublicPath(path) {
		return RouteDecision{Action: ActionRedirect, Location: "/auth/login"}
	}
	return RouteDecision{Action: ActionContinue}
}

// LoginRedirectURL builds the login redirect for a denied request, carrying a
// reason code the login page can turn into a message.
func LoginRedirectURL(reason string) string {
	if reason == "" {
		return "/auth/login"
	}
	return "/auth/login?reason=" + url.QueryEscape(reason)
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}

// wantsJSON reports whether the client prefers a JSON error over a redirect.
// API clients send Accept: application/json or hit /api/ paths; browsers get
// redirects to the login surface.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
