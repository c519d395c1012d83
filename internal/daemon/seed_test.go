package daemon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/internal/auth"
	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/db/dbtest"
	"github.com/keyward/keyward/internal/db/models"
	"github.com/keyward/keyward/internal/web/handler"
)

func newDeps(t *testing.T, adminPassword string) (*config.Config, *handler.Deps) {
	t.Helper()

	cfg := &config.Config{Auth: config.Auth{
		JWTSecret:     "test-secret",
		AdminPassword: adminPassword,
	}}

	deps, err := handler.NewDeps(cfg, dbtest.Open(t))
	require.NoError(t, err)

	return cfg, deps
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	cfg, deps := newDeps(t, "changeme")

	require.NoError(t, Seed(ctx, cfg, deps))

	u, err := deps.Principals.FindByAccountName(ctx, adminUsername)
	require.NoError(t, err)

	ok, err := deps.Resolver.HasRole(ctx, u.ID, auth.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, ok)

	for _, p := range auth.BuiltinPermissions() {
		ok, err := deps.Resolver.HasPermission(ctx, u.ID, p.Code)
		require.NoError(t, err)
		assert.True(t, ok, p.Code)
	}

	_, err = deps.Authenticator.Authenticate(ctx, adminUsername, "changeme", "test")
	assert.NoError(t, err)

	total, system, err := deps.Graph.CountPermissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(auth.BuiltinPermissions())), total)
	assert.Equal(t, total, system)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg, deps := newDeps(t, "changeme")

	require.NoError(t, Seed(ctx, cfg, deps))

	// an operator extends the admin role between restarts
	extra := &models.Permission{Code: "REPORT_VIEW", Name: "View reports", Module: "report"}
	require.NoError(t, deps.Graph.CreatePermission(ctx, extra))

	roles, err := deps.Graph.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	require.NoError(t, deps.Graph.AddPermission(ctx, roles[0].ID, extra.ID))

	require.NoError(t, Seed(ctx, cfg, deps))

	n, err := deps.Principals.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	perms, err := deps.Graph.RolePermissions(ctx, roles[0].ID)
	require.NoError(t, err)
	assert.Len(t, perms, len(auth.BuiltinPermissions())+1)
}

func TestSeedGeneratesAdminPassword(t *testing.T) {
	ctx := context.Background()
	cfg, deps := newDeps(t, "")

	require.NoError(t, Seed(ctx, cfg, deps))

	u, err := deps.Principals.FindByAccountName(ctx, adminUsername)
	require.NoError(t, err)
	assert.NotEmpty(t, u.PasswordHash)
}

func TestSeedSkipsAdminWhenPrincipalsExist(t *testing.T) {
	ctx := context.Background()
	cfg, deps := newDeps(t, "changeme")

	_, err := deps.Accounts.Register(ctx, auth.NewAccount{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret!",
	})
	require.NoError(t, err)

	require.NoError(t, Seed(ctx, cfg, deps))

	_, err = deps.Principals.FindByAccountName(ctx, adminUsername)
	assert.Error(t, err)
}

func TestNewNilConfig(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilConfig)
}
