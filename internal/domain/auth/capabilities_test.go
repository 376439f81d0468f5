package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allCapabilities = []Capability{
	CapManageUsers,
	CapViewPatients,
	CapManagePatients,
	CapViewClinicalRecords,
	CapManageClinicalRecords,
	CapManageAppointments,
	CapManageInventory,
	CapViewFinancials,
	CapManageFinancials,
	CapViewLabResults,
	CapManageLabResults,
}

// Every (role, capability) pair must produce a boolean without panicking,
// and the answer must be stable across calls.
func TestAllowed_TotalAndDeterministic(t *testing.T) {
	roles := append(AllRoles(), Role(""), Role("bogus"), Role("ADMIN"))
	for _, r := range roles {
		for _, c := range allCapabilities {
			first := Allowed(r, c)
			second := Allowed(r, c)
			assert.Equal(t, first, second, "Allowed(%q, %q) must be deterministic", r, c)
		}
	}
}

func TestAllowed_UnknownRoleDenied(t *testing.T) {
	for _, c := range allCapabilities {
		assert.False(t, Allowed(Role("intruder"), c))
		assert.False(t, Allowed(Role(""), c))
	}
}

func TestAllowed_UnknownCapabilityDenied(t *testing.T) {
	for _, r := range AllRoles() {
		assert.False(t, Allowed(r, Capability("launch_missiles")))
	}
}

func TestFinancialCapabilities(t *testing.T) {
	assert.True(t, CanManageFinancials(RoleSuperadmin))
	assert.True(t, CanManageFinancials(RoleAccountant))
	assert.False(t, CanManageFinancials(RoleDoctor))
	assert.False(t, CanManageFinancials(RolePatient))

	// Receptionists can view invoices but not mutate them.
	assert.True(t, CanViewFinancials(RoleReceptionist))
	assert.False(t, CanManageFinancials(RoleReceptionist))
}

func TestPatientRoleIsMostRestricted(t *testing.T) {
	for _, c := range allCapabilities {
		assert.False(t, Allowed(RolePatient, c), "patient role must not hold %q", c)
	}
}

func TestSuperadminHoldsEverything(t *testing.T) {
	for _, c := range allCapabilities {
		assert.True(t, Allowed(RoleSuperadmin, c), "superadmin must hold %q", c)
	}
}

func TestRoleIn(t *testing.T) {
	assert.True(t, RoleIn(RoleDoctor, []Role{RoleDoctor, RoleNurse}))
	assert.False(t, RoleIn(RolePatient, []Role{RoleSuperadmin}))

	// Empty allow-list admits any valid role, never an invalid one.
	assert.True(t, RoleIn(RoleNurse, nil))
	assert.False(t, RoleIn(Role("bogus"), nil))
}

func TestLandingPath(t *testing.T) {
	assert.Equal(t, "/admin", LandingPath(RoleSuperadmin))
	assert.Equal(t, "/portal", LandingPath(RolePatient))
	assert.Equal(t, "/dashboard", LandingPath(RoleDoctor))
	assert.Equal(t, "/dashboard", LandingPath(RoleAccountant))
}
