package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters and internal/data; orchestration
// in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/afyacare/hms/internal/domain/auth"
	"github.com/afyacare/hms/internal/domain/model"
)

// Credentials carries an email/password pair for first-party login.
type Credentials struct {
	Email    string
	Password string
}

// ProviderSession is the token pair issued by the auth provider. IssuedAt and
// ExpiresAt come from the provider's token claims; the application never
// invents expiry times of its own.
type ProviderSession struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// ProviderUser is the identity record the provider holds for a user.
type ProviderUser struct {
	ID    string
	Email string
}

// AuthProvider is a password-based identity provider. A refreshed session must
// carry a strictly later expiry than the session it replaces; providers that
// return stale tokens are treated as refresh failures by the caller.
type AuthProvider interface {
	SignInWithPassword(ctx context.Context, creds Credentials) (ProviderSession, error)
	SignUp(ctx context.Context, creds Credentials) (ProviderUser, error)
	GetUser(ctx context.Context, accessToken string) (ProviderUser, error)
	RefreshSession(ctx context.Context, refreshToken string) (ProviderSession, error)
	SignOut(ctx context.Context, accessToken string) error
}

// BeginInput carries inputs for initiating an SSO flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// SSOProvider initiates and completes a browser SSO flow for staff login.
type SSOProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// ProfileStore looks up and maintains application profiles keyed by the
// provider user ID. Lookups must distinguish "not found" from transient
// failures so callers can fail closed on the former and surface the latter.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (domainauth.Principal, error)
	GetByEmail(ctx context.Context, email string) (domainauth.Principal, error)
	Create(ctx context.Context, p domainauth.Principal) error
	UpdateStatus(ctx context.Context, id string, status domainauth.Status) error
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, opts ProfilesListOptions) ([]domainauth.Principal, error)
	CountByRole(ctx context.Context, role domainauth.Role) (int, error)
}

// ProfilesListOptions controls paging and filtering for listing profiles.
type ProfilesListOptions struct {
	Limit          int
	Offset         int
	Role           *domainauth.Role
	Status         *domainauth.Status
	IncludeDeleted bool
}

// AuditSink records security-relevant actions. Implementations should be
// cheap to call; callers treat Record as best effort and never fail the
// audited action on a sink error.
type AuditSink interface {
	Record(ctx context.Context, entry model.AuditEntry) error
}

// RoleMapper maps provider groups to application roles.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}
