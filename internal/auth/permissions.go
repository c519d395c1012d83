package auth

import "github.com/keyward/keyward/internal/db/models"

// Built-in permission codes guarding the administration API.
const (
	// PermUserManage allows managing principals and their role memberships.
	PermUserManage = "USER_MANAGE"
	// PermRoleManage allows managing roles and their permission sets.
	PermRoleManage = "ROLE_MANAGE"
	// PermPermissionManage allows managing permissions.
	PermPermissionManage = "PERMISSION_MANAGE"
	// PermSystemView allows reading statistics and running access checks for other principals.
	PermSystemView = "SYSTEM_VIEW"
)

// RoleAdmin is the code of the seeded system role holding every built-in permission.
const RoleAdmin = "ADMIN"

// BuiltinPermissions returns the system permissions created at startup.
func BuiltinPermissions() []models.Permission {
	return []models.Permission{
		{Code: PermUserManage, Name: "Manage users", Module: "user", Resource: "user", Action: "manage"},
		{Code: PermRoleManage, Name: "Manage roles", Module: "role", Resource: "role", Action: "manage"},
		{
			Code: PermPermissionManage, Name: "Manage permissions", Module: "permission",
			Resource: "permission", Action: "manage",
		},
		{Code: PermSystemView, Name: "View system", Module: "system", Resource: "system", Action: "view"},
	}
}
