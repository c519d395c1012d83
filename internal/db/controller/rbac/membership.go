package rbac

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/keyward/keyward/internal/db/models"
	"github.com/keyward/keyward/internal/iamerr"
)

// AssignRoleToUser makes principal userID a member of role roleID.
func (s *Store) AssignRoleToUser(ctx context.Context, userID uint64, roleID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkMember(tx, userID, roleID); err != nil {
			return err
		}

		dup, err := exists(tx, &models.UserRole{}, "user_id = ? AND role_id = ?", userID, roleID)
		if err != nil {
			return err
		}

		if dup {
			return iamerr.Duplicate(iamerr.EntityMembership, "", fmt.Sprintf("%d:%d", userID, roleID))
		}

		if err := tx.Create(&models.UserRole{UserID: userID, RoleID: roleID}).Error; err != nil {
			return fmt.Errorf("assign role %d to principal %d: %w", roleID, userID, err)
		}

		return nil
	})
}

// RevokeRoleFromUser removes the membership of principal userID in role roleID.
func (s *Store) RevokeRoleFromUser(ctx context.Context, userID uint64, roleID uint) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&models.UserRole{})
	if res.Error != nil {
		return fmt.Errorf("revoke role %d from principal %d: %w", roleID, userID, res.Error)
	}

	if res.RowsAffected == 0 {
		return iamerr.NotFound(iamerr.EntityMembership, fmt.Sprintf("%d:%d", userID, roleID))
	}

	return nil
}

// UserRoles returns the roles principal userID is a member of, enabled or not.
func (s *Store) UserRoles(ctx context.Context, userID uint64) ([]models.Role, error) {
	var roles []models.Role

	err := s.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.id").
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("list roles of principal %d: %w", userID, err)
	}

	return roles, nil
}

func checkMember(tx *gorm.DB, userID uint64, roleID uint) error {
	found, err := exists(tx, &models.User{}, "id = ?", userID)
	if err != nil {
		return err
	}

	if !found {
		return iamerr.NotFound(iamerr.EntityPrincipal, userID)
	}

	_, err = getRole(tx, roleID)

	return err
}
