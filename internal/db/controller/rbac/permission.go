package rbac

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/keyward/keyward/internal/db/models"
	"github.com/keyward/keyward/internal/iamerr"
)

// ListPermissions returns permissions ordered by module and code.
// An empty module returns every permission.
func (s *Store) ListPermissions(ctx context.Context, module string) ([]models.Permission, error) {
	q := s.db.WithContext(ctx)
	if module != "" {
		q = q.Where("module = ?", module)
	}

	var perms []models.Permission
	if err := q.Order("module, code").Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}

	return perms, nil
}

// ListModules returns the distinct non-empty module tags.
func (s *Store) ListModules(ctx context.Context) ([]string, error) {
	var modules []string

	err := s.db.WithContext(ctx).Model(&models.Permission{}).
		Where("module <> ''").
		Distinct().
		Order("module").
		Pluck("module", &modules).Error
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}

	return modules, nil
}

// GetPermission returns the permission with the given id.
func (s *Store) GetPermission(ctx context.Context, id uint) (*models.Permission, error) {
	var p models.Permission

	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, iamerr.EntityPermission, id)
	}

	return &p, nil
}

// CreatePermission inserts p. The code must be unused.
// Status defaults to enabled and the system flag is always cleared.
func (s *Store) CreatePermission(ctx context.Context, p *models.Permission) error {
	if err := validatePermission(p); err != nil {
		return err
	}

	p.ID = 0
	p.IsSystem = false

	if p.Status == "" {
		p.Status = models.StatusEnabled
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createPermission(tx, p)
	})
}

func createPermission(tx *gorm.DB, p *models.Permission) error {
	dup, err := exists(tx, &models.Permission{}, "code = ?", p.Code)
	if err != nil {
		return err
	}

	if dup {
		return iamerr.Duplicate(iamerr.EntityPermission, "code", p.Code)
	}

	if err := tx.Create(p).Error; err != nil {
		return fmt.Errorf("create permission: %w", err)
	}

	return nil
}

// UpdatePermission replaces the editable fields of permission id with those of in.
//
// A new code must not collide with another permission. A system permission
// keeps its code and module. The system flag and creation time always come
// from the stored row.
func (s *Store) UpdatePermission(ctx context.Context, id uint, in *models.Permission) (*models.Permission, error) {
	if err := validatePermission(in); err != nil {
		return nil, err
	}

	var out models.Permission

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Permission
		if err := tx.First(&existing, id).Error; err != nil {
			return notFound(err, iamerr.EntityPermission, id)
		}

		dup, err := exists(tx, &models.Permission{}, "code = ? AND id <> ?", in.Code, id)
		if err != nil {
			return err
		}

		if dup {
			return iamerr.Duplicate(iamerr.EntityPermission, "code", in.Code)
		}

		if existing.IsSystem && (in.Code != existing.Code || in.Module != existing.Module) {
			return iamerr.Forbidden(iamerr.EntityPermission, id, "code and module of a system permission are immutable")
		}

		out = *in
		out.ID = id
		out.IsSystem = existing.IsSystem
		out.CreatedAt = existing.CreatedAt

		if out.Status == "" {
			out.Status = existing.Status
		}

		if err := tx.Save(&out).Error; err != nil {
			return fmt.Errorf("update permission %d: %w", id, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// DeletePermission removes a non-system permission together with its role assignments.
func (s *Store) DeletePermission(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Permission
		if err := tx.First(&p, id).Error; err != nil {
			return notFound(err, iamerr.EntityPermission, id)
		}

		if p.IsSystem {
			return iamerr.Forbidden(iamerr.EntityPermission, id, "system permissions can not be deleted")
		}

		if err := tx.Where("permission_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
			return fmt.Errorf("delete assignments of permission %d: %w", id, err)
		}

		if err := tx.Delete(&p).Error; err != nil {
			return fmt.Errorf("delete permission %d: %w", id, err)
		}

		return nil
	})
}

// CountPermissions returns the total number of permissions and how many are system flagged.
func (s *Store) CountPermissions(ctx context.Context) (total, system int64, err error) {
	db := s.db.WithContext(ctx)

	if err = db.Model(&models.Permission{}).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("count permissions: %w", err)
	}

	if err = db.Model(&models.Permission{}).Where("is_system = ?", true).Count(&system).Error; err != nil {
		return 0, 0, fmt.Errorf("count system permissions: %w", err)
	}

	return total, system, nil
}

// SeedPermission creates p as a system permission unless its code already exists.
func (s *Store) SeedPermission(ctx context.Context, p *models.Permission) error {
	return s.db.WithContext(ctx).
		Where(models.Permission{Code: p.Code}).
		Attrs(models.Permission{
			Name:        p.Name,
			Description: p.Description,
			Module:      p.Module,
			Resource:    p.Resource,
			Action:      p.Action,
			Status:      models.StatusEnabled,
			IsSystem:    true,
		}).
		FirstOrCreate(p).Error
}

func validatePermission(p *models.Permission) error {
	switch {
	case p == nil:
		return iamerr.Invalid("permission", "must not be empty")
	case strings.TrimSpace(p.Code) == "":
		return iamerr.Invalid("code", "must not be empty")
	case strings.TrimSpace(p.Name) == "":
		return iamerr.Invalid("name", "must not be empty")
	case p.Status != "" && p.Status != models.StatusEnabled && p.Status != models.StatusDisabled:
		return iamerr.Invalid("status", fmt.Sprintf("unknown status %q", p.Status))
	}

	return nil
}
