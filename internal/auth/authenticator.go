package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/keyward/keyward/internal/db/models"
	"github.com/keyward/keyward/internal/iamerr"
)

// CredentialStore is the part of the principal store the Authenticator needs.
type CredentialStore interface {
	FindByAccountName(ctx context.Context, name string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	ReplacePasswordHash(ctx context.Context, id uint64, old, next string) (bool, error)
	RecordFailure(
		ctx context.Context, id uint64, next func(models.LockoutState) models.LockoutState,
	) (models.LockoutState, error)
	RecordSuccess(ctx context.Context, id uint64, state models.LockoutState, at time.Time, origin string) error
}

// Authenticator verifies login credentials and drives the lockout state machine.
type Authenticator struct {
	store  CredentialStore
	hasher Hasher
	policy LockoutPolicy
	clock  Clock
	log    zerolog.Logger
	// dummy is verified for unknown identifiers so they cost as much as a wrong password.
	dummy string
}

const dummyPassword = "keyward-no-such-principal"

// AuthenticatorOption customizes an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithClock replaces the system clock.
func WithClock(c Clock) AuthenticatorOption {
	return func(a *Authenticator) { a.clock = c }
}

// WithLockoutPolicy replaces the default policy.
func WithLockoutPolicy(p LockoutPolicy) AuthenticatorOption {
	return func(a *Authenticator) { a.policy = p }
}

// WithLogger sets the logger; the default discards.
func WithLogger(l zerolog.Logger) AuthenticatorOption {
	return func(a *Authenticator) { a.log = l }
}

// NewAuthenticator returns an Authenticator over store and hasher.
func NewAuthenticator(store CredentialStore, hasher Hasher, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		store:  store,
		hasher: hasher,
		policy: DefaultLockoutPolicy(),
		clock:  SystemClock{},
		log:    zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if dummy, err := hasher.Hash(dummyPassword); err == nil {
		a.dummy = dummy
	}

	return a
}

// Authenticate resolves identifier to a principal and verifies password.
//
// Errors, in the order they are checked:
//   - iamerr.ErrPrincipalNotFound when no non-deleted principal matches, after a
//     verification against a dummy hash
//   - iamerr.ErrPrincipalDisabled for disabled principals, nothing is written
//   - iamerr.ErrPrincipalLocked while a lock is active, the password is not verified
//   - iamerr.ErrInvalidCredentials after the failure has been recorded
//
// On success the lockout state is reset, the login is stamped with origin and
// the stored principal is returned.
func (a *Authenticator) Authenticate(ctx context.Context, identifier, password, origin string) (*models.User, error) {
	kind := Classify(identifier)

	u, err := a.lookup(ctx, kind, identifier)
	if err != nil {
		if errors.Is(err, iamerr.ErrNotFound) {
			loginAttempts.WithLabelValues(kind.String(), outcomeNotFound).Inc()

			if a.dummy != "" {
				_, _ = a.hasher.Verify(password, a.dummy) //nolint:errcheck
			}
		} else {
			loginAttempts.WithLabelValues(kind.String(), outcomeStoreError).Inc()
		}

		return nil, err
	}

	l := a.log.With().Uint64("user_id", u.ID).Str("kind", kind.String()).Str("origin", origin).Logger()

	if u.Status == models.UserStatusDisabled {
		loginAttempts.WithLabelValues(kind.String(), outcomeDisabled).Inc()
		l.Info().Msg("login rejected: account disabled")

		return nil, iamerr.Disabled(u.ID)
	}

	now := a.clock.Now()

	if a.policy.IsLocked(u.Lockout(), now) {
		loginAttempts.WithLabelValues(kind.String(), outcomeLocked).Inc()
		l.Info().Time("locked_until", *u.LockedUntil).Msg("login rejected: account locked")

		return nil, iamerr.Locked(u.ID, *u.LockedUntil)
	}

	match, err := a.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		loginAttempts.WithLabelValues(kind.String(), outcomeStoreError).Inc()
		l.Error().Err(err).Msg("password verification failed")

		return nil, fmt.Errorf("verify password of principal %d: %w", u.ID, err)
	}

	if !match {
		return nil, a.fail(ctx, l, kind, u, now)
	}

	state := a.policy.Recover(u.Lockout())
	if err := a.store.RecordSuccess(ctx, u.ID, state, now, origin); err != nil {
		loginAttempts.WithLabelValues(kind.String(), outcomeStoreError).Inc()

		return nil, err
	}

	u.FailedAttempts = state.FailedAttempts
	u.LockedUntil = state.LockedUntil
	u.LastLoginAt = &now
	u.LastLoginIP = origin

	a.rehash(ctx, l, u, password)

	loginAttempts.WithLabelValues(kind.String(), outcomeSuccess).Inc()
	l.Debug().Msg("login succeeded")

	return u, nil
}

func (a *Authenticator) lookup(ctx context.Context, kind IdentifierKind, identifier string) (*models.User, error) {
	switch kind {
	case Email:
		return a.store.FindByEmail(ctx, identifier)
	case Phone:
		return a.store.FindByPhone(ctx, identifier)
	default:
		return a.store.FindByAccountName(ctx, identifier)
	}
}

func (a *Authenticator) fail(
	ctx context.Context,
	l zerolog.Logger,
	kind IdentifierKind,
	u *models.User,
	now time.Time,
) error {
	state, err := a.store.RecordFailure(ctx, u.ID, func(st models.LockoutState) models.LockoutState {
		return a.policy.Fail(st, now)
	})
	if err != nil {
		loginAttempts.WithLabelValues(kind.String(), outcomeStoreError).Inc()

		return err
	}

	loginAttempts.WithLabelValues(kind.String(), outcomeInvalid).Inc()

	if a.policy.IsLocked(state, now) && !a.policy.IsLocked(u.Lockout(), now) {
		lockouts.Inc()
		l.Warn().Int("failed_attempts", state.FailedAttempts).Time("locked_until", *state.LockedUntil).
			Msg("account locked after repeated failures")
	} else {
		l.Info().Int("failed_attempts", state.FailedAttempts).Msg("login rejected: invalid credentials")
	}

	u.FailedAttempts = state.FailedAttempts
	u.LockedUntil = state.LockedUntil

	return iamerr.InvalidCredentials(u.ID)
}

// rehash upgrades a legacy or weak hash after a successful login. Failures are logged only.
func (a *Authenticator) rehash(ctx context.Context, l zerolog.Logger, u *models.User, password string) {
	if !a.hasher.NeedsRehash(u.PasswordHash) {
		return
	}

	encoded, err := a.hasher.Hash(password)
	if err != nil {
		l.Warn().Err(err).Msg("password rehash failed")
		return
	}

	swapped, err := a.store.ReplacePasswordHash(ctx, u.ID, u.PasswordHash, encoded)
	if err != nil {
		l.Warn().Err(err).Msg("storing rehashed password failed")
		return
	}

	if !swapped {
		l.Info().Msg("password changed during login, rehash skipped")
		return
	}

	u.PasswordHash = encoded

	l.Info().Msg("password hash upgraded")
}
