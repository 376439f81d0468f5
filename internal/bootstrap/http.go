package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/afyacare/hms/config"
	httpx "github.com/afyacare/hms/internal/http"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config   config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// HTTPServer is the running server plus the router whose guard must be
// closed on shutdown.
type HTTPServer struct {
	Server *http.Server
	Router *httpx.Router
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server for graceful shutdown.
func StartHTTPServer(cfg HTTPServerConfig) *HTTPServer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cookieSecure := cfg.Config.HTTP.CookieSecure
	if cfg.Config.IsDev && strings.HasPrefix(cfg.Config.HTTP.BaseURL, "http://") {
		cookieSecure = false
	}

	router := httpx.NewRouter(httpx.RouterServices{
		Auth:         cfg.Services.Auth,
		Admin:        cfg.Services.Admin,
		Patients:     cfg.Services.Patients,
		Appointments: cfg.Services.Appointments,
		Audit:        cfg.Services.Audit,
		Monitor:      cfg.Services.Monitor,
		CookieDomain: cfg.Config.HTTP.CookieDomain,
		CookieSecure: cookieSecure,
		PublicURL:    cfg.Config.HTTP.BaseURL,
		Logger:       logger,
	})

	server := startServer(logger, router.Handler, cfg.Config.HTTP.Addr)
	return &HTTPServer{Server: server, Router: router}
}

func startServer(logger *slog.Logger, handler http.Handler, addr string) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// ShutdownHTTPServer gracefully shuts down the HTTP server and stops the
// guard's pending warning timers.
func ShutdownHTTPServer(ctx context.Context, srv *HTTPServer, logger *slog.Logger) error {
	if srv == nil || srv.Server == nil {
		return nil
	}

	if logger != nil {
		logger.Info("shutting down HTTP server")
	}

	if srv.Router != nil && srv.Router.Guard != nil {
		srv.Router.Guard.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if logger != nil {
		logger.Info("HTTP server stopped")
	}

	return nil
}
