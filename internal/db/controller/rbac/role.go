package rbac

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/keyward/keyward/internal/db/models"
	"github.com/keyward/keyward/internal/iamerr"
)

// ListRoles returns every role ordered by id.
func (s *Store) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role

	if err := s.db.WithContext(ctx).Order("id").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	return roles, nil
}

// GetRole returns the role with the given id.
func (s *Store) GetRole(ctx context.Context, id uint) (*models.Role, error) {
	return getRole(s.db.WithContext(ctx), id)
}

func getRole(tx *gorm.DB, id uint) (*models.Role, error) {
	var r models.Role

	if err := tx.First(&r, id).Error; err != nil {
		return nil, notFound(err, iamerr.EntityRole, id)
	}

	return &r, nil
}

// CreateRole inserts r. The name must be unused; an empty code is derived from the name.
// New roles are enabled and never system flagged.
func (s *Store) CreateRole(ctx context.Context, r *models.Role) error {
	if strings.TrimSpace(r.Name) == "" {
		return iamerr.Invalid("name", "must not be empty")
	}

	r.ID = 0
	r.Status = models.StatusEnabled
	r.IsSystem = false

	if strings.TrimSpace(r.Code) == "" {
		r.Code = RoleCode(r.Name)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dup, err := exists(tx, &models.Role{}, "name = ?", r.Name)
		if err != nil {
			return err
		}

		if dup {
			return iamerr.Duplicate(iamerr.EntityRole, "name", r.Name)
		}

		dup, err = exists(tx, &models.Role{}, "code = ?", r.Code)
		if err != nil {
			return err
		}

		if dup {
			return iamerr.Duplicate(iamerr.EntityRole, "code", r.Code)
		}

		if err := tx.Create(r).Error; err != nil {
			return fmt.Errorf("create role: %w", err)
		}

		return nil
	})
}

// UpdateRole changes the name and description of role id.
// Code, status, system flag and creation time are not touched.
func (s *Store) UpdateRole(ctx context.Context, id uint, name, description string) (*models.Role, error) {
	if strings.TrimSpace(name) == "" {
		return nil, iamerr.Invalid("name", "must not be empty")
	}

	var out *models.Role

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := getRole(tx, id)
		if err != nil {
			return err
		}

		dup, err := exists(tx, &models.Role{}, "name = ? AND id <> ?", name, id)
		if err != nil {
			return err
		}

		if dup {
			return iamerr.Duplicate(iamerr.EntityRole, "name", name)
		}

		err = tx.Model(r).Select("name", "description", "updated_at").
			Updates(models.Role{Name: name, Description: description}).Error
		if err != nil {
			return fmt.Errorf("update role %d: %w", id, err)
		}

		out, err = getRole(tx, id)

		return err
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// SetRoleStatus enables or disables role id. Disabled roles grant nothing.
func (s *Store) SetRoleStatus(ctx context.Context, id uint, status models.Status) error {
	if status != models.StatusEnabled && status != models.StatusDisabled {
		return iamerr.Invalid("status", fmt.Sprintf("unknown status %q", status))
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := getRole(tx, id)
		if err != nil {
			return err
		}

		if err := tx.Model(r).Update("status", status).Error; err != nil {
			return fmt.Errorf("set status of role %d: %w", id, err)
		}

		return nil
	})
}

// DeleteRole removes a non-system role together with its permission and principal joins.
func (s *Store) DeleteRole(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := getRole(tx, id)
		if err != nil {
			return err
		}

		if r.IsSystem {
			return iamerr.Forbidden(iamerr.EntityRole, id, "system roles can not be deleted")
		}

		if err := tx.Where("role_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
			return fmt.Errorf("delete permissions of role %d: %w", id, err)
		}

		if err := tx.Where("role_id = ?", id).Delete(&models.UserRole{}).Error; err != nil {
			return fmt.Errorf("delete members of role %d: %w", id, err)
		}

		if err := tx.Delete(r).Error; err != nil {
			return fmt.Errorf("delete role %d: %w", id, err)
		}

		return nil
	})
}

// CountRoles returns the total number of roles and how many are system flagged.
func (s *Store) CountRoles(ctx context.Context) (total, system int64, err error) {
	db := s.db.WithContext(ctx)

	if err = db.Model(&models.Role{}).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("count roles: %w", err)
	}

	if err = db.Model(&models.Role{}).Where("is_system = ?", true).Count(&system).Error; err != nil {
		return 0, 0, fmt.Errorf("count system roles: %w", err)
	}

	return total, system, nil
}

// SeedRole creates r as a system role unless its code already exists.
func (s *Store) SeedRole(ctx context.Context, r *models.Role) error {
	if r.Code == "" {
		r.Code = RoleCode(r.Name)
	}

	return s.db.WithContext(ctx).
		Where(models.Role{Code: r.Code}).
		Attrs(models.Role{
			Name:        r.Name,
			Description: r.Description,
			Status:      models.StatusEnabled,
			IsSystem:    true,
		}).
		FirstOrCreate(r).Error
}
