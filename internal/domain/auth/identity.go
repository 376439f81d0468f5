package auth

import "time"

// Identity is the verified identity returned by an identity provider after a
// successful login. Groups are the raw provider group names; role mapping
// happens separately so the provider stays ignorant of hospital roles.
type Identity struct {
	Subject  string
	Email    string
	FullName string
	Groups   []string

	// ExpiresAt is the token expiry reported by the provider.
	ExpiresAt time.Time
}
