package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/afyacare/hms/internal/domain/auth"
	"github.com/afyacare/hms/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth         *service.AuthService
	Admin        *service.UserAdminService
	Patients     *service.PatientService
	Appointments *service.AppointmentService
	Audit        *service.AuditService
	// Optional: session expiry monitor. When set, the guard registers sessions
	// for watching and arms precise warning timers.
	Monitor *service.SessionMonitor

	CookieDomain string
	CookieSecure bool
	// PublicURL is the externally visible base URL, used for SSO callbacks.
	PublicURL string
	Logger    *slog.Logger
}

// Router bundles the handler with the guard so the caller can stop the
// guard's timers on shutdown.
type Router struct {
	Handler http.Handler
	Guard   *Guard
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) *Router {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cookies := CookieWriter{Domain: services.CookieDomain, Secure: services.CookieSecure}
	guard := NewGuard(GuardOptions{
		Auth:    services.Auth,
		Monitor: services.Monitor,
		Cookies: cookies,
		Logger:  logger,
	})

	authHandlers := &AuthHandlers{
		Auth:      services.Auth,
		Admin:     services.Admin,
		Monitor:   services.Monitor,
		Cookies:   cookies,
		PublicURL: services.PublicURL,
		Logger:    logger,
	}
	patientHandlers := &PatientHandlers{Svc: services.Patients}
	apptHandlers := &AppointmentHandlers{Svc: services.Appointments}
	adminHandlers := &AdminHandlers{Admin: services.Admin, Audit: services.Audit}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	registerAuthRoutes(mux, authHandlers, guard)
	registerSetupRoutes(mux, adminHandlers)
	registerPatientRoutes(mux, patientHandlers, guard)
	registerAppointmentRoutes(mux, apptHandlers, guard)
	registerAdminRoutes(mux, adminHandlers, guard)
	registerLandingRoutes(mux, guard)

	chain := Logging(logger)(Recover(logger)(mux))
	return &Router{Handler: chain, Guard: guard}
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, guard *Guard) {
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("POST /admin/login", h.handleLogin)
	mux.HandleFunc("POST /auth/signup", h.handleSignup)
	mux.HandleFunc("POST /auth/logout", h.handleLogout)
	mux.HandleFunc("GET /auth/status", h.handleStatus)
	mux.HandleFunc("POST /auth/refresh", h.handleRefresh)
	mux.HandleFunc("GET /auth/sso", h.handleSSOBegin)
	mux.HandleFunc("GET /auth/sso/callback", h.handleSSOCallback)

	// Login pages redirect authenticated visitors to their landing page.
	mux.Handle("GET /auth/login", entryRedirect(guard))
	mux.Handle("GET /admin/login", entryRedirect(guard))
	mux.Handle("GET /auth/signup", entryRedirect(guard))
	mux.Handle("GET /", guard.Attach(http.HandlerFunc(handleRoot)))
}

func registerSetupRoutes(mux *http.ServeMux, h *AdminHandlers) {
	mux.HandleFunc("GET /setup", h.handleSetupStatus)
	mux.HandleFunc("POST /setup", h.handleSetup)
}

func registerPatientRoutes(mux *http.ServeMux, h *PatientHandlers, guard *Guard) {
	view := domainauth.RolesWithCapability(domainauth.CapViewPatients)
	manage := domainauth.RolesWithCapability(domainauth.CapManagePatients)

	mux.Handle("GET /api/patients", guard.Protect(http.HandlerFunc(h.handleList), view...))
	mux.Handle("GET /api/patients/{id}", guard.Protect(http.HandlerFunc(h.handleGet), view...))
	mux.Handle("POST /api/patients", guard.Protect(http.HandlerFunc(h.handleCreate), manage...))
	mux.Handle("PUT /api/patients/{id}", guard.Protect(http.HandlerFunc(h.handleUpdate), manage...))
	mux.Handle("DELETE /api/patients/{id}", guard.Protect(http.HandlerFunc(h.handleDelete), domainauth.RoleSuperadmin))
}

func registerAppointmentRoutes(mux *http.ServeMux, h *AppointmentHandlers, guard *Guard) {
	manage := domainauth.RolesWithCapability(domainauth.CapManageAppointments)

	mux.Handle("GET /api/appointments", guard.Protect(http.HandlerFunc(h.handleList), manage...))
	mux.Handle("GET /api/appointments/{id}", guard.Protect(http.HandlerFunc(h.handleGet), manage...))
	mux.Handle("POST /api/appointments", guard.Protect(http.HandlerFunc(h.handleBook), manage...))
	mux.Handle("POST /api/appointments/{id}/cancel", guard.Protect(http.HandlerFunc(h.handleCancel), manage...))
	mux.Handle("POST /api/appointments/{id}/complete", guard.Protect(http.HandlerFunc(h.handleComplete), manage...))
	mux.Handle("POST /api/appointments/{id}/no-show", guard.Protect(http.HandlerFunc(h.handleNoShow), manage...))
}

func registerAdminRoutes(mux *http.ServeMux, h *AdminHandlers, guard *Guard) {
	admin := func(hh http.HandlerFunc) http.Handler {
		return guard.Protect(hh, domainauth.RoleSuperadmin)
	}

	mux.Handle("GET /api/admin/users", admin(h.handleListUsers))
	mux.Handle("POST /api/admin/users/{id}/approve", admin(h.handleApprove))
	mux.Handle("POST /api/admin/users/{id}/reject", admin(h.handleReject))
	mux.Handle("POST /api/admin/users/{id}/suspend", admin(h.handleSuspend))
	mux.Handle("POST /api/admin/users/{id}/reinstate", admin(h.handleReinstate))
	mux.Handle("POST /api/admin/users/{id}/deactivate", admin(h.handleDeactivate))
	mux.Handle("DELETE /api/admin/users/{id}", admin(h.handleDeleteUser))
	mux.Handle("GET /api/admin/audit", admin(h.handleAuditHistory))
}

// registerLandingRoutes wires the role landing pages. They return a small
// session summary; the front end renders the actual dashboard.
func registerLandingRoutes(mux *http.ServeMux, guard *Guard) {
	landing := func(roles ...domainauth.Role) http.Handler {
		return guard.Protect(http.HandlerFunc(handleLanding), roles...)
	}

	mux.Handle("GET /admin", landing(domainauth.RoleSuperadmin))
	mux.Handle("GET /portal", landing(domainauth.RolePatient))
	mux.Handle("GET /dashboard", landing(domainauth.StaffRoles()...))
	mux.HandleFunc("GET /unauthorized", handleUnauthorized)
}

// entryRedirect applies the page-level routing rule to a login/signup page:
// an authenticated visitor is bounced to their landing page, everyone else
// gets a plain 200 for the front end to render.
func entryRedirect(guard *Guard) http.Handler {
	return guard.Attach(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, authenticated := PrincipalFromContext(r.Context())
		var role domainauth.Role
		if authenticated {
			role = principal.Role
		}
		if d := ClassifyRoute(r.URL.Path, authenticated, role); d.Action == ActionRedirect {
			http.Redirect(w, r, d.Location, http.StatusSeeOther)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]bool{"authenticated": authenticated})
	}))
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if principal, ok := PrincipalFromContext(r.Context()); ok {
		http.Redirect(w, r, domainauth.LandingPath(principal.Role), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func handleLanding(w http.ResponseWriter, r *http.Request) {
	auth, ok := AuthFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required", Err: http.ErrNoCookie})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"user":       auth.Principal,
		"expires_at": auth.Session.ExpiresAt,
	})
}

func handleUnauthorized(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusForbidden, map[string]string{
		"error": "you do not have access to this page",
	})
}
