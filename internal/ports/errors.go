package ports

import "errors"

// Canonical errors shared across port implementations so callers can branch
// without importing adapter packages.
var (
	// ErrInvalidCredentials means the provider rejected the email/password
	// pair. Implementations must not distinguish bad email from bad password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenRejected means an access or refresh token was rejected upstream.
	ErrTokenRejected = errors.New("token rejected by auth provider")

	// ErrSessionNotFound means no session exists for the given ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrProfileNotFound means no application profile exists for the user.
	ErrProfileNotFound = errors.New("profile not found")
)
