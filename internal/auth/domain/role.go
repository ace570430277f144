package domain

import "time"

// Role is a named bundle of permissions. Each user holds exactly one role;
// the effective capability set of an account is its role's permission set,
// resolved fresh from the store on every authorization check.
type Role struct {
	ID          string
	Name        string
	Permissions []Permission // ordered, unique
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasPermission reports whether the role holds the named permission.
func (r Role) HasPermission(name string) bool {
	for _, p := range r.Permissions {
		if p.Name == name {
			return true
		}
	}
	return false
}

// PermissionNames returns the ordered permission names of the role.
func (r Role) PermissionNames() []string {
	names := make([]string, len(r.Permissions))
	for i, p := range r.Permissions {
		names[i] = p.Name
	}
	return names
}

// Permission is an atomic, immutable capability tag.
type Permission struct {
	ID          string
	Name        string
	Description string
}

// Reserved role names that self-service registration must never assign.
// Accounts with these roles are created only through the permissioned
// admin entry point.
const (
	RoleAdmin    = "admin"
	RoleSubAdmin = "sub-admin"
)

// IsReservedRole reports whether a role name is an administrative tier.
func IsReservedRole(name string) bool {
	return name == RoleAdmin || name == RoleSubAdmin
}
