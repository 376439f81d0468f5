package service

import (
	"errors"
	"fmt"

	domainauth "github.com/afyacare/hms/internal/domain/auth"
)

// Typed errors returned by AuthService. Handlers branch on these to pick
// status codes and redirect reasons; anything not matching is a transient
// infrastructure failure and must not be treated as "logged out".
var (
	// ErrNoSession means the caller presented no session at all.
	ErrNoSession = errors.New("no session")

	// ErrSessionExpired means the session existed but its lifetime is over.
	ErrSessionExpired = errors.New("session expired")

	// ErrInvalidCredentials mirrors the provider rejection on login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrProfileMissing means the provider vouched for the user but no
	// application profile exists. Access is denied fail-closed.
	ErrProfileMissing = errors.New("no profile for authenticated user")

	// ErrRefreshFailed means the provider could not extend the session.
	ErrRefreshFailed = errors.New("session refresh failed")
)

// AccountNotActiveError is returned when the profile exists but its status
// forbids access. Status tells the handler which message to show.
type AccountNotActiveError struct {
	Status domainauth.Status
}

func (e *AccountNotActiveError) Error() string {
	return fmt.Sprintf("account not active: %s", e.Status)
}

// IsAuthDenied reports whether err is one of the deliberate access denials,
// as opposed to a transient failure.
func IsAuthDenied(err error) bool {
	var notActive *AccountNotActiveError
	return errors.Is(err, ErrNoSession) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrProfileMissing) ||
		errors.As(err, &notActive)
}
