package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	domainauth "github.com/afyacare/hms/internal/domain/auth"
	"github.com/afyacare/hms/internal/service"
)

// Reason codes appended to login redirects so the page can show a contextual
// message.
const (
	ReasonSessionExpired   = service.ReasonSessionExpired
	ReasonAuthError        = service.ReasonAuthError
	ReasonInvalidCreds     = "invalid_credentials"
	ReasonAccountNotActive = "account_not_active"
)

// GuardOptions groups dependencies for the session guard.
type GuardOptions struct {
	Auth    *service.AuthService
	Monitor *service.SessionMonitor // optional; enables watching + precise warnings
	Cookies CookieWriter
	Logger  *slog.Logger
}

// Guard is the sole authorization checkpoint for protected routes. Every
// protected request resolves its session and profile here before any handler
// runs; a request that cannot be fully validated is denied, never "probably
// fine".
type Guard struct {
	auth    *service.AuthService
	monitor *service.SessionMonitor
	cookies CookieWriter
	logger  *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewGuard constructs a Guard.
func NewGuard(opts GuardOptions) *Guard {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		auth:    opts.Auth,
		monitor: opts.Monitor,
		cookies: opts.Cookies,
		logger:  logger.With("component", "guard"),
		timers:  make(map[string]*time.Timer),
	}
}

// Close stops every pending warning timer. Called on server shutdown.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	for id, timer := range g.timers {
		timer.Stop()
		delete(g.timers, id)
	}
}

// Protect wraps a handler so only authenticated principals whose role is in
// allowedRoles reach it. An empty allowedRoles admits any valid role. The
// resolved principal and session ride the request context.
func (g *Guard) Protect(next http.Handler, allowedRoles ...domainauth.Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := g.sessionID(r)

		result, err := g.auth.CurrentUser(r.Context(), sessionID)
		if err != nil {
			g.deny(w, r, err)
			return
		}

		if !domainauth.RoleIn(result.Principal.Role, allowedRoles) {
			g.forbid(w, r)
			return
		}

		g.watch(result.Session)

		ctx := SetAuthInContext(r.Context(), &RequestAuth{
			Principal: result.Principal,
			Session:   result.Session,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Attach wraps a public handler so that, when a valid session happens to be
// present, the principal is available in context. Validation failures are
// ignored; the page is public either way.
func (g *Guard) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := g.sessionID(r)
		if sessionID != "" {
			if result, err := g.auth.CurrentUser(r.Context(), sessionID); err == nil {
				ctx := SetAuthInContext(r.Context(), &RequestAuth{
					Principal: result.Principal,
					Session:   result.Session,
				})
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Guard) sessionID(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// deny maps a CurrentUser failure to the client-visible outcome. Any denial
// clears the credential cookies: whatever state the browser held, it no longer
// corresponds to a usable session.
func (g *Guard) deny(w http.ResponseWriter, r *http.Request, err error) {
	var notActive *service.AccountNotActiveError

	reason := ""
	code := http.StatusUnauthorized
	switch {
	case errors.Is(err, service.ErrNoSession):
		// Plain unauthenticated visit; no reason banner needed.
	case errors.Is(err, service.ErrSessionExpired):
		reason = ReasonSessionExpired
	case errors.As(err, &notActive):
		reason = ReasonAccountNotActive
	case errors.Is(err, service.ErrProfileMissing):
		reason = ReasonAuthError
	default:
		// Transient lookup failure. Fail closed: the user re-authenticates
		// rather than the guard guessing the session is fine.
		g.logger.WarnContext(r.Context(), "session validation failed", "err", err)
		reason = ReasonAuthError
		code = http.StatusServiceUnavailable
	}

	g.cookies.ClearCredentials(w)

	if wantsJSON(r) {
		WriteError(w, ErrorParams{Code: code, ErrCode: "authentication_required", Err: errors.New("authentication required")})
		return
	}
	http.Redirect(w, r, LoginRedirectURL(reason), http.StatusSeeOther)
}

// forbid handles a valid principal whose role is not allowed here. The
// session stays intact; the user simply cannot see this surface.
func (g *Guard) forbid(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "insufficient_permissions", Err: errors.New("insufficient permissions")})
		return
	}
	http.Redirect(w, r, "/unauthorized", http.StatusSeeOther)
}

// watch registers the session with the monitor and (re)arms its one-shot
// warning timer at the exact warning instant. Periodic monitor passes would
// catch it within a minute anyway; the timer makes the warning punctual.
func (g *Guard) watch(sess domainauth.Session) {
	if g.monitor == nil {
		return
	}
	g.monitor.Watch(sess.ID)

	delay := g.monitor.WarningDelay(sess, time.Now())

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	if existing, ok := g.timers[sess.ID]; ok {
		existing.Stop()
	}
	sessionID := sess.ID
	g.timers[sessionID] = time.AfterFunc(delay, func() {
		g.mu.Lock()
		delete(g.timers, sessionID)
		g.mu.Unlock()
		g.monitor.CheckSession(context.Background(), sessionID)
	})
}
