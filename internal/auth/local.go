package auth

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/keyward/keyward/internal/db/controller/principal"
	"github.com/keyward/keyward/internal/db/models"
	"github.com/keyward/keyward/internal/iamerr"
	"github.com/keyward/keyward/internal/uniuri"
)

// Password length bounds for user supplied passwords.
const (
	MinPasswordLen = 6
	MaxPasswordLen = 20
)

// AccountStore is the part of the principal store used for account management.
type AccountStore interface {
	FindByID(ctx context.Context, id uint64) (*models.User, error)
	Insert(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User, columns ...string) error
	SoftDelete(ctx context.Context, id uint64) error
	List(ctx context.Context, f principal.ListFilter) ([]models.User, int64, error)
}

// NewAccount holds the fields of a principal created by registration or an administrator.
type NewAccount struct {
	Username    string
	Email       string
	Phone       string
	Password    string
	DisplayName string
}

// AccountChanges is an administrator edit. Nil fields are left as they are.
type AccountChanges struct {
	Email       *string
	Phone       *string
	DisplayName *string
}

// ProfileChanges is a self-service edit. Nil fields are left as they are.
type ProfileChanges struct {
	DisplayName *string
	Bio         *string
	AvatarURL   *string
}

// LocalProvider manages locally stored accounts.
type LocalProvider struct {
	store  AccountStore
	hasher Hasher
}

// NewLocalProvider returns a LocalProvider over store and hasher.
func NewLocalProvider(store AccountStore, hasher Hasher) *LocalProvider {
	return &LocalProvider{store: store, hasher: hasher}
}

// Register creates an active principal.
// Account name, email and phone must be unused; the display name defaults to the account name.
func (p *LocalProvider) Register(ctx context.Context, in NewAccount) (*models.User, error) {
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := p.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		DisplayName:  in.DisplayName,
		Status:       models.UserStatusActive,
	}

	if in.Phone != "" {
		u.Phone = &in.Phone
	}

	if err := p.store.Insert(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// CreateUser creates a principal on behalf of an administrator.
func (p *LocalProvider) CreateUser(ctx context.Context, in NewAccount) (*models.User, error) {
	return p.Register(ctx, in)
}

// GetUser returns principal id.
func (p *LocalProvider) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	return p.store.FindByID(ctx, id)
}

// UpdateUser applies an administrator edit. Email and phone must not belong to another principal.
func (p *LocalProvider) UpdateUser(ctx context.Context, id uint64, ch AccountChanges) (*models.User, error) {
	u, err := p.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var cols []string

	if ch.Email != nil {
		u.Email = *ch.Email
		cols = append(cols, principal.ColEmail)
	}

	if ch.Phone != nil {
		u.Phone = ch.Phone
		cols = append(cols, principal.ColPhone)
	}

	if ch.DisplayName != nil {
		u.DisplayName = *ch.DisplayName
		cols = append(cols, principal.ColDisplayName)
	}

	if len(cols) == 0 {
		return u, nil
	}

	if err := p.store.Update(ctx, u, cols...); err != nil {
		return nil, err
	}

	return u, nil
}

// UpdateProfile applies a self-service edit.
func (p *LocalProvider) UpdateProfile(ctx context.Context, id uint64, ch ProfileChanges) (*models.User, error) {
	u, err := p.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var cols []string

	if ch.DisplayName != nil {
		u.DisplayName = *ch.DisplayName
		cols = append(cols, principal.ColDisplayName)
	}

	if ch.Bio != nil {
		u.Bio = *ch.Bio
		cols = append(cols, principal.ColBio)
	}

	if ch.AvatarURL != nil {
		u.AvatarURL = *ch.AvatarURL
		cols = append(cols, principal.ColAvatarURL)
	}

	if len(cols) == 0 {
		return u, nil
	}

	if err := p.store.Update(ctx, u, cols...); err != nil {
		return nil, err
	}

	return u, nil
}

// ChangePassword replaces the password after checking the current one.
// A wrong current password is iamerr.ErrInvalidCredentials and does not touch lockout state.
func (p *LocalProvider) ChangePassword(ctx context.Context, id uint64, current, next string) error {
	if err := checkPassword(next); err != nil {
		return err
	}

	u, err := p.store.FindByID(ctx, id)
	if err != nil {
		return err
	}

	match, err := p.hasher.Verify(current, u.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password of principal %d: %w", id, err)
	}

	if !match {
		return iamerr.InvalidCredentials(id)
	}

	return p.setPassword(ctx, u, next)
}

// ResetPassword sets a random temporary password and returns it.
func (p *LocalProvider) ResetPassword(ctx context.Context, id uint64) (string, error) {
	u, err := p.store.FindByID(ctx, id)
	if err != nil {
		return "", err
	}

	temp, err := uniuri.TempPassword()
	if err != nil {
		return "", err
	}

	if err := p.setPassword(ctx, u, temp); err != nil {
		return "", err
	}

	return temp, nil
}

// SetStatus enables or disables principal id.
func (p *LocalProvider) SetStatus(ctx context.Context, id uint64, status models.UserStatus) (*models.User, error) {
	if !status.Valid() {
		return nil, iamerr.Invalid("status", fmt.Sprintf("unknown status %q", status))
	}

	u, err := p.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.Status = status

	if err := p.store.Update(ctx, u, principal.ColStatus); err != nil {
		return nil, err
	}

	return u, nil
}

// Delete soft deletes principal id.
func (p *LocalProvider) Delete(ctx context.Context, id uint64) error {
	return p.store.SoftDelete(ctx, id)
}

// ListUsers returns one page of principals and the total count.
func (p *LocalProvider) ListUsers(ctx context.Context, f principal.ListFilter) ([]models.User, int64, error) {
	return p.store.List(ctx, f)
}

func (p *LocalProvider) setPassword(ctx context.Context, u *models.User, password string) error {
	hash, err := p.hasher.Hash(password)
	if err != nil {
		return err
	}

	u.PasswordHash = hash

	return p.store.Update(ctx, u, principal.ColPasswordHash)
}

func checkPassword(password string) error {
	n := utf8.RuneCountInString(password)

	switch {
	case n < MinPasswordLen:
		return iamerr.Invalid("password", fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	case n > MaxPasswordLen:
		return iamerr.Invalid("password", fmt.Sprintf("must be at most %d characters", MaxPasswordLen))
	}

	return nil
}
