package models

import (
	"time"

	"gorm.io/gorm"
)

// UserStatus is the operational status of a principal.
type UserStatus string

const (
	// UserStatusActive allows the principal to authenticate.
	UserStatusActive UserStatus = "active"
	// UserStatusDisabled rejects every authentication attempt without lockout side effects.
	UserStatusDisabled UserStatus = "disabled"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusDisabled
}

// User represents an authenticatable principal.
// Account name, email and (when set) phone are unique among non-deleted users.
// Deletion is soft: DeletedAt is set and gorm's default scope hides the row from every query.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Username is the account name used for login.
	Username string `gorm:"size:100;not null;index" json:"username"`
	// Email is the user's email address.
	Email string `gorm:"size:255;not null;index" json:"email"`
	// Phone is the optional 11-digit mobile number.
	Phone *string `gorm:"size:20;index" json:"phone,omitempty"`
	// PasswordHash is the encoded password hash. It is never serialized.
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	// DisplayName defaults to the account name.
	DisplayName string `gorm:"size:100" json:"displayName"`
	// AvatarURL points to the profile picture.
	AvatarURL string `gorm:"size:500" json:"avatarUrl,omitempty"`
	// Bio is a short free-text profile description.
	Bio string `gorm:"size:500" json:"bio,omitempty"`
	// Status is active or disabled.
	Status UserStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	// FailedAttempts counts consecutive failed logins since the last success.
	FailedAttempts int `gorm:"not null;default:0" json:"-"`
	// LockedUntil is the lock expiry; nil when no lock was ever set or it was cleared.
	LockedUntil *time.Time `json:"lockedUntil,omitempty"`
	// LockVersion is bumped on every lockout write and guards concurrent failure updates.
	LockVersion uint64 `gorm:"not null;default:0" json:"-"`
	// LastLoginAt is the time of the last successful authentication.
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	// LastLoginIP is the client origin of the last successful authentication.
	LastLoginIP string `gorm:"size:64" json:"lastLoginIp,omitempty"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
	// DeletedAt is the soft delete timestamp (managed by GORM).
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// Lockout returns the lockout fields of the user.
func (u *User) Lockout() LockoutState {
	return LockoutState{
		FailedAttempts: u.FailedAttempts,
		LockedUntil:    u.LockedUntil,
	}
}

// LockoutState is the persisted part of the brute-force lockout state machine.
type LockoutState struct {
	FailedAttempts int
	LockedUntil    *time.Time
}

// IsDeleted reports whether the user was soft deleted and when.
func (u *User) IsDeleted() (time.Time, bool) {
	if !u.DeletedAt.Valid {
		return time.Time{}, false
	}

	return u.DeletedAt.Time, true
}
