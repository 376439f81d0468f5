package auth

// Package auth contains domain-level types for authentication, sessions,
// and role-based access control. It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application authorization role.
// Kept in string form for easy persistence and cookies.
// Valid values are defined as constants below; the set is closed.
type Role string

const (
	RoleSuperadmin   Role = "superadmin"
	RoleDoctor       Role = "doctor"
	RoleNurse        Role = "nurse"
	RoleReceptionist Role = "receptionist"
	RoleLabTech      Role = "lab_technician"
	RolePharmacist   Role = "pharmacist"
	RoleAccountant   Role = "accountant"
	RolePatient      Role = "patient"
)

// AllRoles lists every valid role value.
func AllRoles() []Role {
	return []Role{
		RoleSuperadmin,
		RoleDoctor,
		RoleNurse,
		RoleReceptionist,
		RoleLabTech,
		RolePharmacist,
		RoleAccountant,
		RolePatient,
	}
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleDoctor, RoleNurse, RoleReceptionist,
		RoleLabTech, RolePharmacist, RoleAccountant, RolePatient:
		return true
	}
	return false
}

// Status represents an account's lifecycle status. Only active accounts may
// access protected surfaces, regardless of role.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
	StatusPending   Status = "pending"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended, StatusPending:
		return true
	}
	return false
}

// Principal is the authenticated identity enriched with its application
// profile. The profile row is the authority for role and status; the identity
// provider only vouches for "who".
type Principal struct {
	ID        string     `json:"id"         db:"id"`
	FullName  string     `json:"full_name"  db:"full_name"`
	Email     string     `json:"email"      db:"email"`
	Role      Role       `json:"role"       db:"role"`
	Status    Status     `json:"status"     db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Active reports whether the principal may be granted access at all.
// Soft-deleted accounts are never active.
func (p Principal) Active() bool {
	return p.Status == StatusActive && p.DeletedAt == nil
}

// Session is the server-side record cached for an authenticated user.
// ID is an opaque identifier; the provider tokens let us refresh or revoke
// the upstream session.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Valid reports whether the session is unexpired at the given instant.
// Validity is always a function of the clock; it must never be cached.
func (s Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// TimeUntilExpiry returns the remaining lifetime at the given instant.
// Negative values mean the session has already expired.
func (s Session) TimeUntilExpiry(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}
