package authroles

import (
	domainauth "github.com/afyacare/hms/internal/domain/auth"
)

// DefaultGroupRoles is the directory group naming convention used by the
// hospital IdP. Deployments with different group names override via config.
var DefaultGroupRoles = map[string]domainauth.Role{
	"hms-superadmins": domainauth.RoleSuperadmin,
	"hms-doctors":     domainauth.RoleDoctor,
	"hms-nurses":      domainauth.RoleNurse,
	"hms-reception":   domainauth.RoleReceptionist,
	"hms-lab":         domainauth.RoleLabTech,
	"hms-pharmacy":    domainauth.RolePharmacist,
	"hms-accounts":    domainauth.RoleAccountant,
}

// StaticRoleMapper maps directory groups to hospital roles by exact name.
// When a user belongs to several mapped groups the most privileged role wins;
// membership in no mapped group yields the patient role, which holds no staff
// capabilities.
type StaticRoleMapper struct {
	GroupRoles map[string]domainauth.Role
}

// NewStaticRoleMapper builds a mapper; a nil table uses DefaultGroupRoles.
func NewStaticRoleMapper(groupRoles map[string]domainauth.Role) StaticRoleMapper {
	if groupRoles == nil {
		groupRoles = DefaultGroupRoles
	}
	return StaticRoleMapper{GroupRoles: groupRoles}
}

// rolePrecedence orders roles from most to least privileged for tie-breaking.
var rolePrecedence = []domainauth.Role{
	domainauth.RoleSuperadmin,
	domainauth.RoleDoctor,
	domainauth.RoleNurse,
	domainauth.RolePharmacist,
	domainauth.RoleLabTech,
	domainauth.RoleAccountant,
	domainauth.RoleReceptionist,
}

// Map resolves directory groups to a single role.
func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	held := make(map[domainauth.Role]bool, len(groups))
	for _, g := range groups {
		if role, ok := m.GroupRoles[g]; ok {
			held[role] = true
		}
	}
	for _, role := range rolePrecedence {
		if held[role] {
			return role
		}
	}
	return domainauth.RolePatient
}
