package rbac

import (
	"context"
	"fmt"

	"github.com/keyward/keyward/internal/db/models"
)

// PermissionCodesByPrincipalID returns the distinct codes of enabled permissions
// reachable through the enabled roles of an active, non-deleted principal.
func (s *Store) PermissionCodesByPrincipalID(ctx context.Context, id uint64) ([]string, error) {
	var codes []string

	err := s.db.WithContext(ctx).Table("permissions").
		Select("DISTINCT permissions.code").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN roles ON roles.id = role_permissions.role_id").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Joins("JOIN users ON users.id = user_roles.user_id").
		Where("users.id = ? AND users.deleted_at IS NULL AND users.status = ?", id, models.UserStatusActive).
		Where("roles.status = ? AND permissions.status = ?", models.StatusEnabled, models.StatusEnabled).
		Order("permissions.code").
		Pluck("permissions.code", &codes).Error
	if err != nil {
		return nil, fmt.Errorf("permission codes of principal %d: %w", id, err)
	}

	return codes, nil
}

// RoleCodesByPrincipalID returns the distinct codes of the enabled roles of an
// active, non-deleted principal.
func (s *Store) RoleCodesByPrincipalID(ctx context.Context, id uint64) ([]string, error) {
	var codes []string

	err := s.db.WithContext(ctx).Table("roles").
		Select("DISTINCT roles.code").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Joins("JOIN users ON users.id = user_roles.user_id").
		Where("users.id = ? AND users.deleted_at IS NULL AND users.status = ?", id, models.UserStatusActive).
		Where("roles.status = ?", models.StatusEnabled).
		Order("roles.code").
		Pluck("roles.code", &codes).Error
	if err != nil {
		return nil, fmt.Errorf("role codes of principal %d: %w", id, err)
	}

	return codes, nil
}
