package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	domainauth "github.com/afyacare/hms/internal/domain/auth"
	"github.com/afyacare/hms/internal/domain/model"
	"github.com/afyacare/hms/internal/ports"
)

// User administration errors.
var (
	// ErrSetupComplete means the one-time setup has already run.
	ErrSetupComplete = errors.New("setup already complete")
	// ErrInvalidTransition rejects a status change the current status does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// UserAdminService manages account lifecycle: the one-time superadmin setup,
// patient self-signup, and the approve/reject/suspend flows superadmins run.
// It never hard-deletes; accounts are tombstoned and their history kept.
type UserAdminService struct {
	provider ports.AuthProvider
	profiles ports.ProfileStore
	audit    *AuditService
	logger   *slog.Logger
}

// NewUserAdminService constructs a new UserAdminService.
func NewUserAdminService(provider ports.AuthProvider, profiles ports.ProfileStore, audit *AuditService, logger *slog.Logger) *UserAdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserAdminService{
		provider: provider,
		profiles: profiles,
		audit:    audit,
		logger:   logger.With("component", "useradmin"),
	}
}

// SetupRequired reports whether the instance still needs its first superadmin.
func (s *UserAdminService) SetupRequired(ctx context.Context) (bool, error) {
	count, err := s.profiles.CountByRole(ctx, domainauth.RoleSuperadmin)
	if err != nil {
		return false, fmt.Errorf("count superadmins: %w", err)
	}
	return count == 0, nil
}

// SignupInput carries the fields for creating a new account.
type SignupInput struct {
	FullName string
	Email    string
	Password string
}

func (in SignupInput) validate() error {
	if strings.TrimSpace(in.FullName) == "" {
		return errors.New("full name is required")
	}
	if strings.TrimSpace(in.Email) == "" || !strings.Contains(in.Email, "@") {
		return errors.New("a valid email is required")
	}
	if len(in.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// CompleteSetup creates the first superadmin, directly active. It refuses to
// run once any superadmin exists, so the public /setup route goes dead after
// first use.
func (s *UserAdminService) CompleteSetup(ctx context.Context, in SignupInput) (domainauth.Principal, error) {
	if err := in.validate(); err != nil {
		return domainauth.Principal{}, err
	}

	required, err := s.SetupRequired(ctx)
	if err != nil {
		return domainauth.Principal{}, err
	}
	if !required {
		return domainauth.Principal{}, ErrSetupComplete
	}

	principal, err := s.createAccount(ctx, in, domainauth.RoleSuperadmin, domainauth.StatusActive)
	if err != nil {
		return domainauth.Principal{}, err
	}

	s.recordAudit(ctx, model.AuditEntry{
		Actor:    principal.ID,
		Entity:   "profile",
		EntityID: principal.ID,
		Action:   "setup_completed",
		Severity: model.AuditCritical,
	})
	return principal, nil
}

// SignupPatient registers a patient portal account. New accounts start
// pending; a staff member approves them before first login succeeds.
func (s *UserAdminService) SignupPatient(ctx context.Context, in SignupInput) (domainauth.Principal, error) {
	if err := in.validate(); err != nil {
		return domainauth.Principal{}, err
	}

	principal, err := s.createAccount(ctx, in, domainauth.RolePatient, domainauth.StatusPending)
	if err != nil {
		return domainauth.Principal{}, err
	}

	s.recordAudit(ctx, model.AuditEntry{
		Actor:    principal.ID,
		Entity:   "profile",
		EntityID: principal.ID,
		Action:   "patient_signup",
	})
	return principal, nil
}

func (s *UserAdminService) createAccount(ctx context.Context, in SignupInput, role domainauth.Role, status domainauth.Status) (domainauth.Principal, error) {
	user, err := s.provider.SignUp(ctx, ports.Credentials{Email: in.Email, Password: in.Password})
	if err != nil {
		return domainauth.Principal{}, fmt.Errorf("create provider account: %w", err)
	}

	principal := domainauth.Principal{
		ID:       user.ID,
		FullName: strings.TrimSpace(in.FullName),
		Email:    in.Email,
		Role:     role,
		Status:   status,
	}
	if err := s.profiles.Create(ctx, principal); err != nil {
		return domainauth.Principal{}, fmt.Errorf("create profile: %w", err)
	}
	return principal, nil
}

// ListUsers returns profiles matching the filter.
func (s *UserAdminService) ListUsers(ctx context.Context, opts ports.ProfilesListOptions) ([]domainauth.Principal, error) {
	return s.profiles.List(ctx, opts)
}

// Approve activates a pending account.
func (s *UserAdminService) Approve(ctx context.Context, actor, id string) error {
	return s.setStatus(ctx, actor, id, domainauth.StatusActive, "user_approved",
		domainauth.StatusPending)
}

// Reject declines a pending account without deleting it.
func (s *UserAdminService) Reject(ctx context.Context, actor, id string) error {
	return s.setStatus(ctx, actor, id, domainauth.StatusInactive, "user_rejected",
		domainauth.StatusPending)
}

// Deactivate turns off an active or suspended account. The next request the
// account makes fails its profile re-check and the session is dropped.
func (s *UserAdminService) Deactivate(ctx context.Context, actor, id string) error {
	return s.setStatus(ctx, actor, id, domainauth.StatusInactive, "user_deactivated",
		domainauth.StatusActive, domainauth.StatusSuspended)
}

// Suspend temporarily locks an active account.
func (s *UserAdminService) Suspend(ctx context.Context, actor, id string) error {
	return s.setStatus(ctx, actor, id, domainauth.StatusSuspended, "user_suspended",
		domainauth.StatusActive)
}

// Reinstate lifts a suspension.
func (s *UserAdminService) Reinstate(ctx context.Context, actor, id string) error {
	return s.setStatus(ctx, actor, id, domainauth.StatusActive, "user_reinstated",
		domainauth.StatusSuspended)
}

// setStatus applies a guarded status transition and audits it.
func (s *UserAdminService) setStatus(ctx context.Context, actor, id string, to domainauth.Status, action string, from ...domainauth.Status) error {
	if id == "" {
		return errors.New("user id is required")
	}

	principal, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if principal.DeletedAt != nil {
		return fmt.Errorf("%w: account is deleted", ErrInvalidTransition)
	}

	allowed := false
	for _, f := range from {
		if principal.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, principal.Status, to)
	}

	if err := s.profiles.UpdateStatus(ctx, id, to); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.recordAudit(ctx, model.AuditEntry{
		Actor:    actor,
		Entity:   "profile",
		EntityID: id,
		Action:   action,
		Details:  map[string]string{"from": string(principal.Status), "to": string(to)},
		Severity: model.AuditWarning,
	})
	return nil
}

// DeleteUser tombstones an account. Superadmins cannot delete themselves;
// losing the last superadmin would lock the instance.
func (s *UserAdminService) DeleteUser(ctx context.Context, actor, id string) error {
	if id == "" {
		return errors.New("user id is required")
	}
	if actor == id {
		return errors.New("cannot delete your own account")
	}

	principal, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if principal.Role == domainauth.RoleSuperadmin {
		count, cErr := s.profiles.CountByRole(ctx, domainauth.RoleSuperadmin)
		if cErr != nil {
			return fmt.Errorf("count superadmins: %w", cErr)
		}
		if count <= 1 {
			return errors.New("cannot delete the last superadmin")
		}
	}

	if err := s.profiles.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	s.recordAudit(ctx, model.AuditEntry{
		Actor:    actor,
		Entity:   "profile",
		EntityID: id,
		Action:   "user_deleted",
		Severity: model.AuditCritical,
	})
	return nil
}

func (s *UserAdminService) recordAudit(ctx context.Context, entry model.AuditEntry) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, entry)
}
