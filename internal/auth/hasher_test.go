package auth

import (
	"strings"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := NewPasswordHasher(testParams)

	encoded, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))
	assert.NotContains(t, encoded, "correct horse")

	match, err := h.Verify("correct horse", encoded)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = h.Verify("wrong horse", encoded)
	require.NoError(t, err)
	assert.False(t, match)

	assert.False(t, h.NeedsRehash(encoded))
}

func TestHashEmptyPassword(t *testing.T) {
	_, err := NewPasswordHasher(testParams).Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestHashesAreSalted(t *testing.T) {
	h := NewPasswordHasher(testParams)

	a, err := h.Hash("secret")
	require.NoError(t, err)

	b, err := h.Hash("secret")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerifyLegacyBcrypt(t *testing.T) {
	h := NewPasswordHasher(testParams)

	raw, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	encoded := string(raw)

	match, err := h.Verify("secret", encoded)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = h.Verify("other", encoded)
	require.NoError(t, err)
	assert.False(t, match)

	assert.True(t, h.NeedsRehash(encoded))
}

func TestVerifyMalformedHash(t *testing.T) {
	h := NewPasswordHasher(testParams)

	testCases := []struct {
		name    string
		encoded string
	}{
		{"plain text", "secret"},
		{"md5 crypt", "$1$abc$def"},
		{"truncated argon2id", "$argon2id$v=19$m=1024"},
		{"truncated bcrypt", "$2a$04$short"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			match, err := h.Verify("secret", tc.encoded)
			assert.Error(t, err)
			assert.False(t, match)
		})
	}
}

func TestNeedsRehashWeakerParams(t *testing.T) {
	weak, err := NewPasswordHasher(testParams).Hash("secret")
	require.NoError(t, err)

	strong := NewPasswordHasher(&argon2id.Params{
		Memory:      2 * testParams.Memory,
		Iterations:  testParams.Iterations,
		Parallelism: testParams.Parallelism,
		SaltLength:  testParams.SaltLength,
		KeyLength:   testParams.KeyLength,
	})

	assert.True(t, strong.NeedsRehash(weak))
	assert.False(t, strong.NeedsRehash("not a hash"))
}

func TestNewPasswordHasherDefaults(t *testing.T) {
	assert.Equal(t, argon2id.DefaultParams, NewPasswordHasher(nil).params)
}
