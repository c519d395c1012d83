package rbac

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/keyward/keyward/internal/db/models"
	"github.com/keyward/keyward/internal/iamerr"
)

// assignBatchSize is the number of join rows per INSERT statement.
var assignBatchSize = 100 //nolint:gochecknoglobals

// RolePermissions returns the permissions assigned to role id.
func (s *Store) RolePermissions(ctx context.Context, roleID uint) ([]models.Permission, error) {
	db := s.db.WithContext(ctx)

	if _, err := getRole(db, roleID); err != nil {
		return nil, err
	}

	var perms []models.Permission

	err := db.Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", roleID).
		Order("permissions.module, permissions.code").
		Find(&perms).Error
	if err != nil {
		return nil, fmt.Errorf("list permissions of role %d: %w", roleID, err)
	}

	return perms, nil
}

// AssignPermissions replaces the permission set of role id with permissionIDs.
//
// Every id is checked first; the first unknown one aborts with a permission
// not found error before anything is written. The delete and the batch insert
// share one transaction, so readers see either the old or the new set.
// Duplicate ids are collapsed.
func (s *Store) AssignPermissions(ctx context.Context, roleID uint, permissionIDs []uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getRole(tx, roleID); err != nil {
			return err
		}

		seen := make(map[uint]struct{}, len(permissionIDs))
		rows := make([]models.RolePermission, 0, len(permissionIDs))

		for _, pid := range permissionIDs {
			if _, ok := seen[pid]; ok {
				continue
			}

			seen[pid] = struct{}{}

			found, err := exists(tx, &models.Permission{}, "id = ?", pid)
			if err != nil {
				return err
			}

			if !found {
				return iamerr.NotFound(iamerr.EntityPermission, pid)
			}

			rows = append(rows, models.RolePermission{RoleID: roleID, PermissionID: pid})
		}

		if err := tx.Where("role_id = ?", roleID).Delete(&models.RolePermission{}).Error; err != nil {
			return fmt.Errorf("clear permissions of role %d: %w", roleID, err)
		}

		if len(rows) == 0 {
			return nil
		}

		if err := tx.CreateInBatches(rows, assignBatchSize).Error; err != nil {
			return fmt.Errorf("assign permissions to role %d: %w", roleID, err)
		}

		return nil
	})
}

// AddPermission grants one permission to a role. An existing pair is a conflict.
func (s *Store) AddPermission(ctx context.Context, roleID, permissionID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkPair(tx, roleID, permissionID); err != nil {
			return err
		}

		dup, err := exists(tx, &models.RolePermission{},
			"role_id = ? AND permission_id = ?", roleID, permissionID)
		if err != nil {
			return err
		}

		if dup {
			return iamerr.Duplicate(iamerr.EntityAssignment, "", fmt.Sprintf("%d:%d", roleID, permissionID))
		}

		err = tx.Create(&models.RolePermission{RoleID: roleID, PermissionID: permissionID}).Error
		if err != nil {
			return fmt.Errorf("add permission %d to role %d: %w", permissionID, roleID, err)
		}

		return nil
	})
}

// RemovePermission revokes one permission from a role. A missing pair is not found.
func (s *Store) RemovePermission(ctx context.Context, roleID, permissionID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkPair(tx, roleID, permissionID); err != nil {
			return err
		}

		res := tx.Where("role_id = ? AND permission_id = ?", roleID, permissionID).
			Delete(&models.RolePermission{})
		if res.Error != nil {
			return fmt.Errorf("remove permission %d from role %d: %w", permissionID, roleID, res.Error)
		}

		if res.RowsAffected == 0 {
			return iamerr.NotFound(iamerr.EntityAssignment, fmt.Sprintf("%d:%d", roleID, permissionID))
		}

		return nil
	})
}

func checkPair(tx *gorm.DB, roleID, permissionID uint) error {
	if _, err := getRole(tx, roleID); err != nil {
		return err
	}

	found, err := exists(tx, &models.Permission{}, "id = ?", permissionID)
	if err != nil {
		return err
	}

	if !found {
		return iamerr.NotFound(iamerr.EntityPermission, permissionID)
	}

	return nil
}
