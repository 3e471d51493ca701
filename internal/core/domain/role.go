package domain

import "fmt"

// Role is the closed set of roles an identity can hold.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleTeamLead   Role = "team_lead"
	RoleUser       Role = "user"
	RoleViewer     Role = "viewer"
)

// PermissionAll grants every permission.
const PermissionAll = "*"

// Roles lists every known role, highest privilege first.
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleTeamLead, RoleUser, RoleViewer}

// ParseRole converts a raw string into a Role. Unknown values are rejected.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleTeamLead, RoleUser, RoleViewer:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Permissions returns the default permission set granted by the role.
// The returned slice is a fresh copy.
func (r Role) Permissions() []string {
	switch r {
	case RoleSuperAdmin:
		return []string{PermissionAll}
	case RoleAdmin:
		return []string{"tenant:manage", "users:manage", "billing:view", "settings:manage", "integrations:manage"}
	case RoleTeamLead:
		return []string{"team:manage", "cards:bulk", "analytics:view", "integrations:use"}
	case RoleUser:
		return []string{"cards:process", "contacts:manage", "profile:manage"}
	case RoleViewer:
		return []string{"cards:view", "contacts:view"}
	}
	return nil
}
