package models

import "time"

// Status is the enabled flag of roles and permissions.
type Status string

const (
	// StatusEnabled marks a role or permission as effective.
	StatusEnabled Status = "enabled"
	// StatusDisabled keeps the row but removes it from permission resolution.
	StatusDisabled Status = "disabled"
)

// Role represents a role in the role-based access control (RBAC) system.
// Roles are named bundles of permissions assigned to users.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the unique display name of the role (e.g., "Content Editor").
	Name string `gorm:"unique;size:100;not null" json:"name"`
	// Code is the unique machine code, derived from the name when not supplied (e.g., "CONTENT_EDITOR").
	Code string `gorm:"unique;size:100;not null" json:"code"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255" json:"description"`
	// Status is enabled or disabled.
	Status Status `gorm:"type:varchar(20);not null;default:'enabled'" json:"status"`
	// IsSystem indicates if this is a system role that cannot be deleted.
	IsSystem bool `gorm:"default:false" json:"isSystem"`
	// CreatedAt is the timestamp when the role was created.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the role was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}
