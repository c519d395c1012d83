// Package rbac is the role and permission graph store.
//
// It owns the roles, permissions and role_permissions tables, maintains the
// principal to role membership rows, and answers the pre-joined code queries
// used by permission resolution.
package rbac

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/keyward/keyward/internal/iamerr"
)

// ErrDBNil is returned when the database connection is nil.
var ErrDBNil = errors.New("database connection is nil")

// Store manages roles, permissions and their joins.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by db.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	return &Store{db: db}, nil
}

// RoleCode derives a role code from its name: upper case, spaces replaced by underscores.
func RoleCode(name string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(name)), " ", "_")
}

func notFound(err error, entity string, key any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return iamerr.NotFound(entity, key)
	}

	return fmt.Errorf("%s store: %w", entity, err)
}

func exists(tx *gorm.DB, model any, query string, args ...any) (bool, error) {
	var n int64

	if err := tx.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		return false, fmt.Errorf("count: %w", err)
	}

	return n > 0, nil
}
