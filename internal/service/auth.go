package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	domainauth "github.com/afyacare/hms/internal/domain/auth"
	"github.com/afyacare/hms/internal/domain/model"
	"github.com/afyacare/hms/internal/ports"
	"github.com/afyacare/hms/internal/util"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider
	SSO      ports.SSOProvider // optional; staff SSO is disabled when nil
	Sessions ports.SessionStore
	Profiles ports.ProfileStore
	Roles    ports.RoleMapper
	Audit    *AuditService
	Clock    util.Clock
	Logger   *slog.Logger
}

// AuthService orchestrates authentication: it exchanges credentials for
// provider sessions, joins them with the application profile, and owns the
// session lifecycle. All denials are fail-closed: a user with a verified
// provider identity but no active profile gets no access.
type AuthService struct {
	provider ports.AuthProvider
	sso      ports.SSOProvider
	sessions ports.SessionStore
	profiles ports.ProfileStore
	roles    ports.RoleMapper
	audit    *AuditService
	clock    util.Clock
	logger   *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	clock := opts.Clock
	if clock == nil {
		clock = util.RealClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		provider: opts.Provider,
		sso:      opts.SSO,
		sessions: opts.Sessions,
		profiles: opts.Profiles,
		roles:    opts.Roles,
		audit:    opts.Audit,
		clock:    clock,
		logger:   logger.With("component", "auth"),
	}
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Session   domainauth.Session
	Principal domainauth.Principal
}

// Login performs password login. The provider authenticates the credentials;
// the profile row decides whether the account may enter at all.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	provSess, err := s.provider.SignInWithPassword(ctx, ports.Credentials{Email: email, Password: password})
	if err != nil {
		if errors.Is(err, ports.ErrInvalidCredentials) {
			s.recordAudit(ctx, model.AuditEntry{
				Actor:    email,
				Entity:   "auth",
				EntityID: email,
				Action:   "login_rejected",
				Severity: model.AuditWarning,
			})
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}

	principal, err := s.admitProfile(ctx, provSess.UserID, provSess.AccessToken)
	if err != nil {
		return nil, err
	}

	session := domainauth.Session{
		ID:           uuid.NewString(),
		UserID:       provSess.UserID,
		FullName:     principal.FullName,
		Email:        principal.Email,
		Role:         principal.Role,
		AccessToken:  provSess.AccessToken,
		RefreshToken: provSess.RefreshToken,
		IssuedAt:     provSess.IssuedAt,
		ExpiresAt:    provSess.ExpiresAt,
	}
	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	s.recordAudit(ctx, model.AuditEntry{
		Actor:    principal.ID,
		Entity:   "auth",
		EntityID: principal.ID,
		Action:   "login",
		Details:  map[string]string{"role": string(principal.Role)},
	})

	return &LoginResult{Session: session, Principal: principal}, nil
}

// admitProfile loads the profile for an authenticated provider user and
// applies the fail-closed admission rules. On denial the upstream session is
// revoked best-effort so the freshly issued tokens do not linger.
func (s *AuthService) admitProfile(ctx context.Context, userID, accessToken string) (domainauth.Principal, error) {
	principal, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ports.ErrProfileNotFound) {
			s.revokeUpstream(ctx, accessToken)
			s.recordAudit(ctx, model.AuditEntry{
				Actor:    userID,
				Entity:   "auth",
				EntityID: userID,
				Action:   "login_denied_no_profile",
				Severity: model.AuditWarning,
			})
			return domainauth.Principal{}, ErrProfileMissing
		}
		return domainauth.Principal{}, fmt.Errorf("load profile: %w", err)
	}

	if !principal.Active() {
		s.revokeUpstream(ctx, accessToken)
		s.recordAudit(ctx, model.AuditEntry{
			Actor:    userID,
			Entity:   "auth",
			EntityID: userID,
			Action:   "login_denied_inactive",
			Details:  map[string]string{"status": string(principal.Status)},
			Severity: model.AuditWarning,
		})
		status := principal.Status
		if principal.DeletedAt != nil {
			status = domainauth.StatusInactive
		}
		return domainauth.Principal{}, &AccountNotActiveError{Status: status}
	}

	return principal, nil
}

func (s *AuthService) revokeUpstream(ctx context.Context, accessToken string) {
	if accessToken == "" {
		return
	}
	if err := s.provider.SignOut(ctx, accessToken); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke upstream session", "err", err)
	}
}

// CurrentUser resolves a session ID to its principal. Every protected request
// goes through here; the profile is re-read each time so role and status
// changes take effect immediately.
func (s *AuthService) CurrentUser(ctx context.Context, sessionID string) (*LoginResult, error) {
	session, err := s.getValidSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	principal, err := s.profiles.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ports.ErrProfileNotFound) {
			// Profile vanished mid-session: fail closed and drop the session.
			if delErr := s.sessions.Delete(ctx, sessionID); delErr != nil {
				s.logger.WarnContext(ctx, "failed to delete orphaned session", "err", delErr)
			}
			return nil, ErrProfileMissing
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if !principal.Active() {
		if delErr := s.sessions.Delete(ctx, sessionID); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete session for inactive account", "err", delErr)
		}
		return nil, &AccountNotActiveError{Status: principal.Status}
	}

	return &LoginResult{Session: session, Principal: principal}, nil
}

func (s *AuthService) getValidSession(ctx context.Context, sessionID string) (domainauth.Session, error) {
	if sessionID == "" {
		return domainauth.Session{}, ErrNoSession
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return domainauth.Session{}, ErrNoSession
		}
		return domainauth.Session{}, fmt.Errorf("get session: %w", err)
	}

	if !session.Valid(s.clock.Now()) {
		if delErr := s.sessions.Delete(ctx, sessionID); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete expired session", "err", delErr)
		}
		return domainauth.Session{}, ErrSessionExpired
	}

	return session, nil
}

// Refresh extends a session via the provider's refresh grant. The refreshed
// session must expire strictly later than the one it replaces; a provider
// handing back the same or an earlier expiry is treated as a failed refresh
// so callers escalate instead of looping.
func (s *AuthService) Refresh(ctx context.Context, sessionID string) (domainauth.Session, error) {
	session, err := s.getValidSession(ctx, sessionID)
	if err != nil {
		return domainauth.Session{}, err
	}

	provSess, err := s.provider.RefreshSession(ctx, session.RefreshToken)
	if err != nil {
		if errors.Is(err, ports.ErrTokenRejected) {
			return domainauth.Session{}, fmt.Errorf("%w: refresh token rejected", ErrRefreshFailed)
		}
		return domainauth.Session{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if !provSess.ExpiresAt.After(session.ExpiresAt) {
		return domainauth.Session{}, fmt.Errorf("%w: provider returned stale expiry", ErrRefreshFailed)
	}

	session.AccessToken = provSess.AccessToken
	session.RefreshToken = provSess.RefreshToken
	session.IssuedAt = provSess.IssuedAt
	session.ExpiresAt = provSess.ExpiresAt

	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return domainauth.Session{}, fmt.Errorf("%w: save refreshed session: %w", ErrRefreshFailed, saveErr)
	}
	return session, nil
}

// Logout tears down a session everywhere it exists: the upstream provider,
// the session store, and (by the caller) the cookie. Each step runs even if
// an earlier one failed; errors are joined so nothing is silently skipped.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	var errs []error

	session, err := s.sessions.Get(ctx, sessionID)
	switch {
	case err == nil:
		if session.AccessToken != "" {
			if soErr := s.provider.SignOut(ctx, session.AccessToken); soErr != nil {
				errs = append(errs, fmt.Errorf("provider sign out: %w", soErr))
			}
		}
		s.recordAudit(ctx, model.AuditEntry{
			Actor:    session.UserID,
			Entity:   "auth",
			EntityID: session.UserID,
			Action:   "logout",
		})
	case errors.Is(err, ports.ErrSessionNotFound):
		// Already gone; still fall through to Delete for idempotence.
	default:
		errs = append(errs, fmt.Errorf("get session: %w", err))
	}

	if delErr := s.sessions.Delete(ctx, sessionID); delErr != nil {
		errs = append(errs, fmt.Errorf("delete session: %w", delErr))
	}

	return errors.Join(errs...)
}

func (s *AuthService) recordAudit(ctx context.Context, entry model.AuditEntry) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, entry)
}
