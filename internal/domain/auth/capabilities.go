package auth

// Capability names a permission that pages and handlers check before exposing
// data or actions. Permission decisions are keyed solely on the role
// enumeration; every check in the application goes through this table so there
// is exactly one allow-list per capability.
type Capability string

const (
	CapManageUsers           Capability = "manage_users"
	CapViewPatients          Capability = "view_patients"
	CapManagePatients        Capability = "manage_patients"
	CapViewClinicalRecords   Capability = "view_clinical_records"
	CapManageClinicalRecords Capability = "manage_clinical_records"
	CapManageAppointments    Capability = "manage_appointments"
	CapManageInventory       Capability = "manage_inventory"
	CapViewFinancials        Capability = "view_financials"
	CapManageFinancials      Capability = "manage_financials"
	CapViewLabResults        Capability = "view_lab_results"
	CapManageLabResults      Capability = "manage_lab_results"
)

// grants is the static capability table. Roles absent from a capability's set
// are denied; capabilities absent from the table are denied for everyone.
var grants = map[Capability]map[Role]struct{}{
	CapManageUsers:           roleSet(RoleSuperadmin),
	CapViewPatients:          roleSet(RoleSuperadmin, RoleDoctor, RoleNurse, RoleReceptionist, RoleLabTech),
	CapManagePatients:        roleSet(RoleSuperadmin, RoleDoctor, RoleNurse, RoleReceptionist),
	CapViewClinicalRecords:   roleSet(RoleSuperadmin, RoleDoctor, RoleNurse, RoleLabTech),
	CapManageClinicalRecords: roleSet(RoleSuperadmin, RoleDoctor),
	CapManageAppointments:    roleSet(RoleSuperadmin, RoleDoctor, RoleNurse, RoleReceptionist),
	CapManageInventory:       roleSet(RoleSuperadmin, RolePharmacist),
	CapViewFinancials:        roleSet(RoleSuperadmin, RoleAccountant, RoleReceptionist),
	CapManageFinancials:      roleSet(RoleSuperadmin, RoleAccountant),
	CapViewLabResults:        roleSet(RoleSuperadmin, RoleDoctor, RoleNurse, RoleLabTech),
	CapManageLabResults:      roleSet(RoleSuperadmin, RoleLabTech),
}

func roleSet(roles ...Role) map[Role]struct{} {
	set := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Allowed reports whether the role holds the capability. It is total and
// deterministic: unknown or malformed roles and capabilities always deny.
func Allowed(role Role, cap Capability) bool {
	set, ok := grants[cap]
	if !ok {
		return false
	}
	_, ok = set[role]
	return ok
}

// Convenience predicates used at call sites that gate a single concern.

func CanManageUsers(r Role) bool      { return Allowed(r, CapManageUsers) }
func CanViewPatients(r Role) bool     { return Allowed(r, CapViewPatients) }
func CanManagePatients(r Role) bool   { return Allowed(r, CapManagePatients) }
func CanViewFinancials(r Role) bool   { return Allowed(r, CapViewFinancials) }
func CanManageFinancials(r Role) bool { return Allowed(r, CapManageFinancials) }
func CanManageInventory(r Role) bool  { return Allowed(r, CapManageInventory) }

// RolesWithCapability returns every role holding the capability, in the
// canonical role order. Used to build route allow-lists from the same table
// the in-handler checks use.
func RolesWithCapability(c Capability) []Role {
	var out []Role
	for _, r := range AllRoles() {
		if Allowed(r, c) {
			out = append(out, r)
		}
	}
	return out
}

// StaffRoles lists every role except patient.
func StaffRoles() []Role {
	var out []Role
	for _, r := range AllRoles() {
		if r != RolePatient {
			out = append(out, r)
		}
	}
	return out
}

// RoleIn reports whether the role is a member of the given allow-list.
// An empty allow-list means "any valid role".
func RoleIn(role Role, allowed []Role) bool {
	if !role.Valid() {
		return false
	}
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// LandingPath returns the role-appropriate landing page after login.
func LandingPath(role Role) string {
	switch role {
	case RoleSuperadmin:
		return "/admin"
	case RolePatient:
		return "/portal"
	default:
		return "/dashboard"
	}
}
