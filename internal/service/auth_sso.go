package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	domainauth "github.com/afyacare/hms/internal/domain/auth"
	"github.com/afyacare/hms/internal/domain/model"
	"github.com/afyacare/hms/internal/ports"
)

// ErrSSONotConfigured is returned when the SSO flow is invoked without an
// SSO provider wired in.
var ErrSSONotConfigured = errors.New("sso not configured")

// BeginSSOResult contains the redirect target and the state/nonce pair the
// handler must stash in short-lived cookies for the callback.
type BeginSSOResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginSSO initiates the staff SSO flow.
func (s *AuthService) BeginSSO(ctx context.Context, redirectURL string) (*BeginSSOResult, error) {
	if s.sso == nil {
		return nil, ErrSSONotConfigured
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.sso.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin sso flow: %w", err)
	}
	return &BeginSSOResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteSSOInput groups parameters for completing the SSO flow.
type CompleteSSOInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteSSO exchanges the callback code for an identity and admits the
// user. Staff seen for the first time get a profile provisioned from the
// directory: the group-mapped role, active status. Directory users whose
// groups map to no staff role are rejected; patients do not come in through
// SSO.
func (s *AuthService) CompleteSSO(ctx context.Context, in CompleteSSOInput) (*LoginResult, error) {
	if s.sso == nil {
		return nil, ErrSSONotConfigured
	}
	if in.Code == "" || in.State == "" || in.Nonce == "" {
		return nil, errors.New("code, state and nonce are required")
	}

	identity, err := s.sso.Exchange(ctx, ports.ExchangeInput{Code: in.Code, State: in.State, Nonce: in.Nonce})
	if err != nil {
		return nil, fmt.Errorf("exchange sso code: %w", err)
	}

	role := s.roles.Map(identity.Groups)
	if role == domainauth.RolePatient {
		s.recordAudit(ctx, model.AuditEntry{
			Actor:    identity.Subject,
			Entity:   "auth",
			EntityID: identity.Subject,
			Action:   "sso_denied_no_staff_group",
			Severity: model.AuditWarning,
		})
		return nil, ErrProfileMissing
	}

	principal, err := s.profiles.GetByID(ctx, identity.Subject)
	switch {
	case errors.Is(err, ports.ErrProfileNotFound):
		principal = domainauth.Principal{
			ID:       identity.Subject,
			FullName: identity.FullName,
			Email:    identity.Email,
			Role:     role,
			Status:   domainauth.StatusActive,
		}
		if createErr := s.profiles.Create(ctx, principal); createErr != nil {
			return nil, fmt.Errorf("provision staff profile: %w", createErr)
		}
		s.recordAudit(ctx, model.AuditEntry{
			Actor:    identity.Subject,
			Entity:   "profile",
			EntityID: identity.Subject,
			Action:   "sso_provisioned",
			Details:  map[string]string{"role": string(role)},
		})
	case err != nil:
		return nil, fmt.Errorf("load profile: %w", err)
	case !principal.Active():
		s.recordAudit(ctx, model.AuditEntry{
			Actor:    identity.Subject,
			Entity:   "auth",
			EntityID: identity.Subject,
			Action:   "login_denied_inactive",
			Details:  map[string]string{"status": string(principal.Status)},
			Severity: model.AuditWarning,
		})
		return nil, &AccountNotActiveError{Status: principal.Status}
	}

	session := domainauth.Session{
		ID:        uuid.NewString(),
		UserID:    principal.ID,
		FullName:  principal.FullName,
		Email:     principal.Email,
		Role:      principal.Role,
		IssuedAt:  s.clock.Now(),
		ExpiresAt: identity.ExpiresAt,
	}
	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	s.recordAudit(ctx, model.AuditEntry{
		Actor:    principal.ID,
		Entity:   "auth",
		EntityID: principal.ID,
		Action:   "login_sso",
		Details:  map[string]string{"role": string(principal.Role)},
	})

	return &LoginResult{Session: session, Principal: principal}, nil
}
