package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRole_Valid(t *testing.T) {
	for _, r := range AllRoles() {
		assert.True(t, r.Valid(), "role %q should be valid", r)
	}

	assert.False(t, Role("").Valid())
	assert.False(t, Role("admin").Valid())
	assert.False(t, Role("SUPERADMIN").Valid())
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range []Status{StatusActive, StatusInactive, StatusSuspended, StatusPending} {
		assert.True(t, s.Valid(), "status %q should be valid", s)
	}
	assert.False(t, Status("deleted").Valid())
	assert.False(t, Status("").Valid())
}

func TestPrincipal_Active(t *testing.T) {
	p := Principal{Status: StatusActive}
	assert.True(t, p.Active())

	for _, s := range []Status{StatusInactive, StatusSuspended, StatusPending} {
		p.Status = s
		assert.False(t, p.Active(), "status %q must never be active", s)
	}

	// A soft-deleted account is never active even if its status says so.
	deleted := time.Now()
	p = Principal{Status: StatusActive, DeletedAt: &deleted}
	assert.False(t, p.Active())
}

func TestSession_Valid(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s := Session{ExpiresAt: now.Add(time.Minute)}
	assert.True(t, s.Valid(now))

	s.ExpiresAt = now.Add(-time.Second)
	assert.False(t, s.Valid(now))

	// Expiry instant itself is not valid: validity requires now < expiry.
	s.ExpiresAt = now
	assert.False(t, s.Valid(now))
}

func TestSession_TimeUntilExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s := Session{ExpiresAt: now.Add(290 * time.Second)}
	assert.Equal(t, 290*time.Second, s.TimeUntilExpiry(now))

	s.ExpiresAt = now.Add(-time.Second)
	assert.Equal(t, -time.Second, s.TimeUntilExpiry(now))
}
