// Package principal is the credential store: it owns the users table.
//
// Every query runs through gorm's soft delete scope, so deleted principals are
// invisible to lookups, counts and updates without any per-query filter.
package principal

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/keyward/keyward/internal/db/models"
	"github.com/keyward/keyward/internal/iamerr"
)

// MaxLockoutRetries bounds the compare-and-swap loop of RecordFailure.
const MaxLockoutRetries = 5

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrConcurrentUpdate is returned when RecordFailure lost every compare-and-swap round.
	ErrConcurrentUpdate = errors.New("principal lockout state changed concurrently")
)

// Columns accepted by Update. Lockout and login bookkeeping have their own paths.
const (
	ColUsername     = "username"
	ColEmail        = "email"
	ColPhone        = "phone"
	ColPasswordHash = "password_hash"
	ColDisplayName  = "display_name"
	ColAvatarURL    = "avatar_url"
	ColBio          = "bio"
	ColStatus       = "status"
)

var (
	updatableColumns = []string{ //nolint:gochecknoglobals
		ColUsername, ColEmail, ColPhone, ColPasswordHash,
		ColDisplayName, ColAvatarURL, ColBio, ColStatus,
	}
	uniqueColumns = []string{ColUsername, ColEmail, ColPhone} //nolint:gochecknoglobals
)

// Store reads and writes principal rows.
type Store struct {
	db *gorm.DB
}

// ListFilter narrows List.
type ListFilter struct {
	Status  models.UserStatus // empty for all
	Keyword string            // matched against username, email and display name
	Limit   int
	Offset  int
}

// New returns a Store backed by db.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	return &Store{db: db}, nil
}

// FindByAccountName looks up a principal by its account name.
func (s *Store) FindByAccountName(ctx context.Context, name string) (*models.User, error) {
	return s.findBy(ctx, "username", name)
}

// FindByEmail looks up a principal by email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findBy(ctx, "email", email)
}

// FindByPhone looks up a principal by phone number.
func (s *Store) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	return s.findBy(ctx, "phone", phone)
}

// FindByID looks up a principal by id.
func (s *Store) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var u models.User

	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err, id)
	}

	return &u, nil
}

func (s *Store) findBy(ctx context.Context, column, value string) (*models.User, error) {
	if value == "" {
		return nil, iamerr.NotFound(iamerr.EntityPrincipal, value)
	}

	var u models.User

	if err := s.db.WithContext(ctx).Where(column+" = ?", value).First(&u).Error; err != nil {
		return nil, translate(err, value)
	}

	return &u, nil
}

// Insert creates a principal. Account name, email and phone must be unused.
// New principals start active with a zero failure counter unless a status is given.
func (s *Store) Insert(ctx context.Context, u *models.User) error {
	if err := validate(u); err != nil {
		return err
	}

	u.ID = 0
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.LockVersion = 0

	if u.Status == "" {
		u.Status = models.UserStatusActive
	}

	if u.DisplayName == "" {
		u.DisplayName = u.Username
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkUnique(tx, u, uniqueColumns); err != nil {
			return err
		}

		if err := tx.Create(u).Error; err != nil {
			return fmt.Errorf("insert principal: %w", err)
		}

		return nil
	})

	return s.raced(ctx, u, uniqueColumns, err)
}

// Update writes the given columns of u, or every identity, profile, status and
// password column when none are named. Columns not named keep their stored
// values, so concurrent edits of other fields survive. Lockout counters and
// login bookkeeping are never written here.
func (s *Store) Update(ctx context.Context, u *models.User, columns ...string) error {
	if err := validate(u); err != nil {
		return err
	}

	cols, err := selectColumns(columns)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		if err := tx.Select("id").First(&existing, u.ID).Error; err != nil {
			return translate(err, u.ID)
		}

		if err := checkUnique(tx, u, cols); err != nil {
			return err
		}

		if err := tx.Model(&existing).Select(append(cols, "updated_at")).Updates(u).Error; err != nil {
			return fmt.Errorf("update principal %d: %w", u.ID, err)
		}

		return nil
	})

	return s.raced(ctx, u, cols, err)
}

// ReplacePasswordHash swaps the password hash of principal id only while it still
// equals old. It reports whether the swap happened.
func (s *Store) ReplacePasswordHash(ctx context.Context, id uint64, old, next string) (bool, error) {
	if next == "" {
		return false, iamerr.Invalid("password", "hash must not be empty")
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND password_hash = ?", id, old).
		Updates(map[string]any{"password_hash": next, "updated_at": time.Now()})
	if res.Error != nil {
		return false, fmt.Errorf("replace password hash of principal %d: %w", id, res.Error)
	}

	return res.RowsAffected == 1, nil
}

// SoftDelete marks the principal deleted.
func (s *Store) SoftDelete(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete principal %d: %w", id, res.Error)
	}

	if res.RowsAffected == 0 {
		return iamerr.NotFound(iamerr.EntityPrincipal, id)
	}

	return nil
}

// CountAll counts non-deleted principals.
func (s *Store) CountAll(ctx context.Context) (int64, error) {
	var n int64

	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count principals: %w", err)
	}

	return n, nil
}

// CountByStatus counts non-deleted principals with the given status.
func (s *Store) CountByStatus(ctx context.Context, status models.UserStatus) (int64, error) {
	var n int64

	err := s.db.WithContext(ctx).Model(&models.User{}).Where("status = ?", status).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count principals by status: %w", err)
	}

	return n, nil
}

// List returns one page of principals ordered by id and the total matching count.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.User, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		like := "%" + kw + "%"
		q = q.Where("username LIKE ? OR email LIKE ? OR display_name LIKE ?", like, like, like)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count principals: %w", err)
	}

	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	var users []models.User
	if err := q.Order("id").Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list principals: %w", err)
	}

	return users, total, nil
}

// RecordFailure applies next to the stored lockout state of principal id.
//
// The write is a compare-and-swap on lock_version: when another writer changed
// the row between the read and the write, the state is re-read and next is
// applied again, up to MaxLockoutRetries times. Concurrent failures therefore
// never lose an increment.
func (s *Store) RecordFailure(
	ctx context.Context,
	id uint64,
	next func(models.LockoutState) models.LockoutState,
) (models.LockoutState, error) {
	db := s.db.WithContext(ctx)

	for range MaxLockoutRetries {
		var u models.User
		if err := db.Select("id", "failed_attempts", "locked_until", "lock_version").First(&u, id).Error; err != nil {
			return models.LockoutState{}, translate(err, id)
		}

		state := next(u.Lockout())

		res := db.Model(&models.User{}).
			Where("id = ? AND lock_version = ?", id, u.LockVersion).
			Updates(map[string]any{
				"failed_attempts": state.FailedAttempts,
				"locked_until":    state.LockedUntil,
				"lock_version":    gorm.Expr("lock_version + 1"),
			})
		if res.Error != nil {
			return models.LockoutState{}, fmt.Errorf("record failure for principal %d: %w", id, res.Error)
		}

		if res.RowsAffected == 1 {
			return state, nil
		}
	}

	return models.LockoutState{}, fmt.Errorf("%w: principal %d", ErrConcurrentUpdate, id)
}

// RecordSuccess writes the recovered lockout state and stamps the last login.
func (s *Store) RecordSuccess(
	ctx context.Context,
	id uint64,
	state models.LockoutState,
	at time.Time,
	origin string,
) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_attempts": state.FailedAttempts,
			"locked_until":    state.LockedUntil,
			"lock_version":    gorm.Expr("lock_version + 1"),
			"last_login_at":   at,
			"last_login_ip":   origin,
		})
	if res.Error != nil {
		return fmt.Errorf("record success for principal %d: %w", id, res.Error)
	}

	if res.RowsAffected == 0 {
		return iamerr.NotFound(iamerr.EntityPrincipal, id)
	}

	return nil
}

func validate(u *models.User) error {
	switch {
	case strings.TrimSpace(u.Username) == "":
		return iamerr.Invalid("username", "must not be empty")
	case strings.TrimSpace(u.Email) == "":
		return iamerr.Invalid("email", "must not be empty")
	case u.PasswordHash == "":
		return iamerr.Invalid("password", "hash must not be empty")
	case u.Status != "" && !u.Status.Valid():
		return iamerr.Invalid("status", fmt.Sprintf("unknown status %q", u.Status))
	}

	if u.Phone != nil && *u.Phone == "" {
		u.Phone = nil
	}

	return nil
}

func selectColumns(columns []string) ([]string, error) {
	if len(columns) == 0 {
		return slices.Clone(updatableColumns), nil
	}

	for _, c := range columns {
		if !slices.Contains(updatableColumns, c) {
			return nil, iamerr.Invalid("column", fmt.Sprintf("%q is not updatable", c))
		}
	}

	return slices.Clone(columns), nil
}

// checkUnique rejects u when another non-deleted principal holds the value of one
// of the unique columns among cols. The live unique indexes created by migration
// back this check; raced turns an index violation into the same error.
func checkUnique(tx *gorm.DB, u *models.User, cols []string) error {
	for _, column := range uniqueColumns {
		if !slices.Contains(cols, column) {
			continue
		}

		var value any

		switch column {
		case ColUsername:
			value = u.Username
		case ColEmail:
			value = u.Email
		case ColPhone:
			if u.Phone == nil {
				continue
			}

			value = *u.Phone
		}

		var n int64

		err := tx.Model(&models.User{}).
			Where(column+" = ? AND id <> ?", value, u.ID).
			Count(&n).Error
		if err != nil {
			return fmt.Errorf("check %s uniqueness: %w", column, err)
		}

		if n > 0 {
			return iamerr.Duplicate(iamerr.EntityPrincipal, column, value)
		}
	}

	return nil
}

// raced maps a write error caused by a concurrent writer taking a unique value
// between the check and the write to the duplicate error the check would have given.
func (s *Store) raced(ctx context.Context, u *models.User, cols []string, err error) error {
	if err == nil || errors.Is(err, iamerr.ErrConflict) || errors.Is(err, iamerr.ErrNotFound) {
		return err
	}

	if dup := checkUnique(s.db.WithContext(ctx), u, cols); errors.Is(dup, iamerr.ErrConflict) {
		return dup
	}

	return err
}

func translate(err error, key any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return iamerr.NotFound(iamerr.EntityPrincipal, key)
	}

	return fmt.Errorf("principal store: %w", err)
}
