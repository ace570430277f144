package domain

// PermissionDefinition seeds a permission at startup.
type PermissionDefinition struct {
	Name        string
	Description string
}

// RoleDefinition seeds a role and its ordered permission set at startup.
type RoleDefinition struct {
	Name        string
	Permissions []string
}

// DefaultPermissions is the platform's capability catalogue. The CRUD
// collaborators (blogs, FAQs, plans, subscriptions, settings) gate their
// routes on the content/settings permissions; the auth core itself consumes
// the users/roles ones.
func DefaultPermissions() []PermissionDefinition {
	return []PermissionDefinition{
		{Name: "users:read", Description: "List and view user accounts"},
		{Name: "users:create", Description: "Create accounts, including administrative tiers"},
		{Name: "users:update", Description: "Edit account profile fields"},
		{Name: "users:block", Description: "Block and unblock accounts"},
		{Name: "users:delete", Description: "Soft-delete accounts"},
		{Name: "roles:read", Description: "List roles and their permissions"},
		{Name: "roles:manage", Description: "Create roles and edit their permission sets"},
		{Name: "content:read", Description: "Read platform content"},
		{Name: "content:write", Description: "Create and edit platform content"},
		{Name: "settings:manage", Description: "Edit site settings"},
	}
}

// DefaultRoles returns the roles seeded at bootstrap. Permission order is
// preserved as written.
func DefaultRoles() []RoleDefinition {
	return []RoleDefinition{
		{
			Name: RoleAdmin,
			Permissions: []string{
				"users:read", "users:create", "users:update", "users:block", "users:delete",
				"roles:read", "roles:manage",
				"content:read", "content:write",
				"settings:manage",
			},
		},
		{
			Name: RoleSubAdmin,
			Permissions: []string{
				"users:read", "users:update", "users:block",
				"roles:read",
				"content:read", "content:write",
			},
		},
		{
			Name:        "member",
			Permissions: []string{"content:read"},
		},
		{
			Name:        "student",
			Permissions: []string{"content:read"},
		},
	}
}
