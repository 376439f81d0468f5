package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/afyacare/hms/internal/domain/auth"
	"github.com/afyacare/hms/internal/ports"
	"github.com/afyacare/hms/internal/util"
)

// Defaults for the session monitor. The check interval is deliberately coarse;
// expiry enforcement does not depend on it because every request re-validates
// through CurrentUser.
const (
	DefaultCheckInterval = time.Minute
	DefaultWarnThreshold = 5 * time.Minute
)

// Termination reasons reported to OnTerminated and used as redirect reason
// codes by the HTTP layer.
const (
	ReasonSessionExpired = "session_expired"
	ReasonAuthError      = "auth_error"
)

// SessionMonitorOptions groups dependencies for SessionMonitor.
type SessionMonitorOptions struct {
	Sessions ports.SessionStore
	Auth     *AuthService
	Clock    util.Clock
	Logger   *slog.Logger

	CheckInterval time.Duration
	WarnThreshold time.Duration

	// OnWarning fires when a watched session enters its expiry-warning
	// window. It fires once per window: a refresh extends the expiry and
	// re-arms the warning.
	OnWarning func(sess domainauth.Session, remaining time.Duration)

	// OnTerminated fires after a watched session has been torn down, with
	// one of the Reason constants.
	OnTerminated func(sessionID, reason string)
}

// SessionMonitor watches sessions and enforces their lifecycle: it warns
// before expiry and force-terminates sessions that expired or can no longer
// be validated. Failures are handled closed; an unverifiable session is
// treated as ended, never as still-valid.
type SessionMonitor struct {
	sessions ports.SessionStore
	auth     *AuthService
	clock    util.Clock
	logger   *slog.Logger

	checkInterval time.Duration
	warnThreshold time.Duration
	onWarning     func(sess domainauth.Session, remaining time.Duration)
	onTerminated  func(sessionID, reason string)

	mu      sync.Mutex
	watched map[string]*watchState
}

// watchState tracks the warning window for one watched session.
type watchState struct {
	// warnedExpiry is the ExpiresAt value the last warning was issued for.
	// A refresh moves ExpiresAt forward, which re-arms the warning.
	warnedExpiry time.Time
}

// NewSessionMonitor constructs a SessionMonitor.
func NewSessionMonitor(opts SessionMonitorOptions) *SessionMonitor {
	clock := opts.Clock
	if clock == nil {
		clock = util.RealClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	checkInterval := opts.CheckInterval
	if checkInterval <= 0 {
		checkInterval = DefaultCheckInterval
	}
	warnThreshold := opts.WarnThreshold
	if warnThreshold <= 0 {
		warnThreshold = DefaultWarnThreshold
	}
	return &SessionMonitor{
		sessions:      opts.Sessions,
		auth:          opts.Auth,
		clock:         clock,
		logger:        logger.With("component", "session_monitor"),
		checkInterval: checkInterval,
		warnThreshold: warnThreshold,
		onWarning:     opts.OnWarning,
		onTerminated:  opts.OnTerminated,
		watched:       make(map[string]*watchState),
	}
}

// WarnThreshold returns the configured warning threshold.
func (m *SessionMonitor) WarnThreshold() time.Duration {
	return m.warnThreshold
}

// Watch starts monitoring a session. Watching an already-watched session is
// a no-op; the existing warning window is preserved.
func (m *SessionMonitor) Watch(sessionID string) {
	if sessionID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.watched[sessionID]; !ok {
		m.watched[sessionID] = &watchState{}
	}
}

// Unwatch stops monitoring a session without terminating it. Used when the
// user logs out normally.
func (m *SessionMonitor) Unwatch(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.watched, sessionID)
}

// Watching reports whether a session is currently monitored.
func (m *SessionMonitor) Watching(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.watched[sessionID]
	return ok
}

// Run executes the periodic check loop until ctx is cancelled.
func (m *SessionMonitor) Run(ctx context.Context) error {
	m.logger.InfoContext(ctx, "starting session monitor",
		"check_interval", m.checkInterval,
		"warn_threshold", m.warnThreshold,
	)

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.InfoContext(ctx, "session monitor stopping")
			return ctx.Err()
		case <-ticker.C:
			m.CheckAll(ctx)
		}
	}
}

// CheckAll runs one monitoring pass over every watched session.
func (m *SessionMonitor) CheckAll(ctx context.Context) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.watched))
	for id := range m.watched {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.check(ctx, id)
	}
}

// CheckSession runs one monitoring pass for a single session. The guard's
// warning timers call this at the exact threshold instant instead of waiting
// for the next periodic pass.
func (m *SessionMonitor) CheckSession(ctx context.Context, sessionID string) {
	if !m.Watching(sessionID) {
		return
	}
	m.check(ctx, sessionID)
}

func (m *SessionMonitor) check(ctx context.Context, sessionID string) {
	sess, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			// Gone from the store: expired or revoked elsewhere.
			m.terminate(ctx, sessionID, ReasonSessionExpired)
			return
		}
		// Cannot verify the session. Fail closed: tear it down rather than
		// leave a possibly-dead session looking alive.
		m.logger.WarnContext(ctx, "session check failed, terminating",
			"session_id", sessionID, "err", err)
		m.terminate(ctx, sessionID, ReasonAuthError)
		return
	}

	now := m.clock.Now()
	remaining := sess.TimeUntilExpiry(now)
	if remaining <= 0 {
		m.terminate(ctx, sessionID, ReasonSessionExpired)
		return
	}

	if remaining <= m.warnThreshold {
		m.warnOnce(sess, remaining)
	}
}

// warnOnce emits the expiry warning unless one was already issued for this
// expiry value.
func (m *SessionMonitor) warnOnce(sess domainauth.Session, remaining time.Duration) {
	m.mu.Lock()
	state, ok := m.watched[sess.ID]
	if !ok || state.warnedExpiry.Equal(sess.ExpiresAt) {
		m.mu.Unlock()
		return
	}
	state.warnedExpiry = sess.ExpiresAt
	m.mu.Unlock()

	m.logger.Info("session expiry warning",
		"session_id", sess.ID,
		"remaining", remaining,
	)
	if m.onWarning != nil {
		m.onWarning(sess, remaining)
	}
}

// terminate tears the session down everywhere and reports it. Teardown is
// best effort and exhaustive: a failing step is logged and the rest still
// runs, so a broken provider cannot keep a session half-alive.
func (m *SessionMonitor) terminate(ctx context.Context, sessionID, reason string) {
	m.mu.Lock()
	if _, ok := m.watched[sessionID]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.watched, sessionID)
	m.mu.Unlock()

	if m.auth != nil {
		if err := m.auth.Logout(ctx, sessionID); err != nil {
			m.logger.WarnContext(ctx, "forced logout incomplete",
				"session_id", sessionID, "err", err)
		}
	}

	m.logger.InfoContext(ctx, "session terminated",
		"session_id", sessionID, "reason", reason)
	if m.onTerminated != nil {
		m.onTerminated(sessionID, reason)
	}
}

// WarningDelay computes how long after now the expiry warning for sess is
// due. Sessions already inside the warning window are due immediately.
func (m *SessionMonitor) WarningDelay(sess domainauth.Session, now time.Time) time.Duration {
	delay := sess.TimeUntilExpiry(now) - m.warnThreshold
	if delay < 0 {
		return 0
	}
	return delay
}
