package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords.
//
// Verify returns (false, nil) for a wrong password and a non-nil error only for
// infrastructure problems such as a malformed stored hash. The Authenticator
// counts the former toward lockout and never the latter.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
	NeedsRehash(encoded string) bool
}

// PasswordHasher creates argon2id hashes and verifies argon2id and legacy bcrypt hashes.
type PasswordHasher struct {
	params *argon2id.Params
}

// NewPasswordHasher returns a hasher using params, or argon2id.DefaultParams when nil.
func NewPasswordHasher(params *argon2id.Params) *PasswordHasher {
	if params == nil {
		params = argon2id.DefaultParams
	}

	return &PasswordHasher{params: params}
}

// Hash returns an encoded argon2id hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	encoded, err := argon2id.CreateHash(password, h.params)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return encoded, nil
}

// Verify compares password with an argon2id or bcrypt hash.
func (h *PasswordHasher) Verify(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		match, err := argon2id.ComparePasswordAndHash(password, encoded)
		if err != nil {
			return false, fmt.Errorf("verify argon2id hash: %w", err)
		}

		return match, nil
	case isBcrypt(encoded):
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}

		if err != nil {
			return false, fmt.Errorf("verify bcrypt hash: %w", err)
		}

		return true, nil
	default:
		return false, ErrUnsupportedHash
	}
}

// NeedsRehash reports whether encoded is a legacy bcrypt hash or an argon2id
// hash with weaker parameters than the configured ones.
func (h *PasswordHasher) NeedsRehash(encoded string) bool {
	if isBcrypt(encoded) {
		return true
	}

	params, _, _, err := argon2id.DecodeHash(encoded)
	if err != nil {
		return false
	}

	return params.Memory < h.params.Memory ||
		params.Iterations < h.params.Iterations ||
		params.KeyLength < h.params.KeyLength
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}
