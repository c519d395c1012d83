package auth

import (
	"time"

	"github.com/keyward/keyward/internal/db/models"
)

// Lockout defaults.
const (
	DefaultMaxFailedAttempts = 5
	DefaultLockDuration      = 30 * time.Minute
)

// LockoutPhase is the derived state of a principal's lockout fields.
type LockoutPhase int

const (
	// Unlocked has no failures recorded.
	Unlocked LockoutPhase = iota
	// Warned has failures below the threshold, or an expired lock.
	Warned
	// Locked has an unexpired lock.
	Locked
)

// String implements fmt.Stringer.
func (p LockoutPhase) String() string {
	switch p {
	case Warned:
		return "warned"
	case Locked:
		return "locked"
	default:
		return "unlocked"
	}
}

// LockoutPolicy holds the threshold and lock window and computes transitions.
// It never touches storage.
type LockoutPolicy struct {
	MaxFailedAttempts int
	LockDuration      time.Duration
}

// DefaultLockoutPolicy locks for 30 minutes after 5 consecutive failures.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxFailedAttempts: DefaultMaxFailedAttempts,
		LockDuration:      DefaultLockDuration,
	}
}

// Phase classifies st at now.
func (p LockoutPolicy) Phase(st models.LockoutState, now time.Time) LockoutPhase {
	switch {
	case p.IsLocked(st, now):
		return Locked
	case st.FailedAttempts > 0:
		return Warned
	default:
		return Unlocked
	}
}

// IsLocked reports whether an unexpired lock is set at now.
// A lock is lifted once its expiry is not after now.
func (p LockoutPolicy) IsLocked(st models.LockoutState, now time.Time) bool {
	return st.LockedUntil != nil && st.LockedUntil.After(now)
}

// Fail returns the state after a failed password verification at now.
// Reaching the threshold starts a new lock window.
func (p LockoutPolicy) Fail(st models.LockoutState, now time.Time) models.LockoutState {
	st.FailedAttempts++

	if st.FailedAttempts >= p.MaxFailedAttempts {
		until := now.Add(p.LockDuration)
		st.LockedUntil = &until
	}

	return st
}

// Recover returns the state after a successful login: no failures and no lock.
func (p LockoutPolicy) Recover(models.LockoutState) models.LockoutState {
	return models.LockoutState{}
}

// Remaining returns how many failures are left before the lock trips.
func (p LockoutPolicy) Remaining(st models.LockoutState) int {
	return max(p.MaxFailedAttempts-st.FailedAttempts, 0)
}
