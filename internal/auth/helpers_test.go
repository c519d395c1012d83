package auth

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/internal/db/controller/principal"
	"github.com/keyward/keyward/internal/db/controller/rbac"
	"github.com/keyward/keyward/internal/db/dbtest"
	"github.com/keyward/keyward/internal/db/models"
)

// cheap parameters keep the argon2id tests fast
var testParams = &argon2id.Params{ //nolint:gochecknoglobals
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

var errHasherDown = errors.New("hasher unavailable")

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

// countingHasher counts Verify calls of the wrapped hasher.
type countingHasher struct {
	Hasher
	verifies atomic.Int32
}

func (h *countingHasher) Verify(password, encoded string) (bool, error) {
	h.verifies.Add(1)
	return h.Hasher.Verify(password, encoded)
}

// brokenHasher fails every verification with an infrastructure error.
type brokenHasher struct {
	Hasher
}

func (brokenHasher) Verify(string, string) (bool, error) { return false, errHasherDown }

type fixture struct {
	principals *principal.Store
	graph      *rbac.Store
	hasher     *countingHasher
	clock      *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.Open(t)

	principals, err := principal.New(db)
	require.NoError(t, err)

	graph, err := rbac.New(db)
	require.NoError(t, err)

	return &fixture{
		principals: principals,
		graph:      graph,
		hasher:     &countingHasher{Hasher: NewPasswordHasher(testParams)},
		clock:      newFakeClock(),
	}
}

func (f *fixture) authenticator(opts ...AuthenticatorOption) *Authenticator {
	return NewAuthenticator(f.principals, f.hasher, append([]AuthenticatorOption{WithClock(f.clock)}, opts...)...)
}

func (f *fixture) seedUser(t *testing.T, name, password string, phone *string) *models.User {
	t.Helper()

	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)

	u := &models.User{
		Username:     name,
		Email:        name + "@example.com",
		Phone:        phone,
		PasswordHash: hash,
	}
	require.NoError(t, f.principals.Insert(context.Background(), u))

	return u
}

func (f *fixture) reload(t *testing.T, id uint64) *models.User {
	t.Helper()

	u, err := f.principals.FindByID(context.Background(), id)
	require.NoError(t, err)

	return u
}

func ptr[T any](v T) *T { return &v }
