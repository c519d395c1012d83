package models

import "time"

// Permission represents an atomic capability code.
// Permissions are assigned to roles, which are then assigned to users.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint `gorm:"primaryKey" json:"id"`
	// Code is the globally unique permission code (e.g., "POST_WRITE").
	Code string `gorm:"unique;size:100;not null" json:"code"`
	// Name is the human-readable permission name.
	Name string `gorm:"size:100;not null" json:"name"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255" json:"description"`
	// Module is the grouping tag (e.g., "user", "content").
	Module string `gorm:"size:50;index" json:"module"`
	// Resource is the optional resource this permission applies to.
	Resource string `gorm:"size:100" json:"resource,omitempty"`
	// Action is the optional action allowed on the resource.
	Action string `gorm:"size:50" json:"action,omitempty"`
	// Status is enabled or disabled.
	Status Status `gorm:"type:varchar(20);not null;default:'enabled'" json:"status"`
	// IsSystem protects the permission from deletion and from code or module edits.
	IsSystem bool `gorm:"default:false" json:"isSystem"`
	// CreatedAt is the timestamp when the permission was created.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the permission was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}
