// Package models contains database model definitions.
package models

// All lists every model managed by auto-migration, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Role{},
		&Permission{},
		&RolePermission{},
		&UserRole{},
	}
}
