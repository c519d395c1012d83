package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/internal/db/models"
	"github.com/keyward/keyward/internal/iamerr"
)

var errGraphDown = errors.New("graph store unavailable")

// staticGraph serves fixed codes or a fixed error.
type staticGraph struct {
	perms []string
	roles []string
	err   error
}

func (g staticGraph) PermissionCodesByPrincipalID(context.Context, uint64) ([]string, error) {
	return g.perms, g.err
}

func (g staticGraph) RoleCodesByPrincipalID(context.Context, uint64) ([]string, error) {
	return g.roles, g.err
}

// editorFixture gives alice the EDITOR role holding POST_WRITE and POST_READ,
// and the VIEWER role holding POST_READ.
func editorFixture(t *testing.T) (*fixture, *models.User) {
	t.Helper()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice", "s3cret!", nil)

	write := &models.Permission{Code: "POST_WRITE", Name: "Write posts", Module: "content"}
	read := &models.Permission{Code: "POST_READ", Name: "Read posts", Module: "content"}
	require.NoError(t, f.graph.CreatePermission(ctx, write))
	require.NoError(t, f.graph.CreatePermission(ctx, read))

	editor := &models.Role{Name: "Editor"}
	viewer := &models.Role{Name: "Viewer"}
	require.NoError(t, f.graph.CreateRole(ctx, editor))
	require.NoError(t, f.graph.CreateRole(ctx, viewer))

	require.NoError(t, f.graph.AssignPermissions(ctx, editor.ID, []uint{write.ID, read.ID}))
	require.NoError(t, f.graph.AssignPermissions(ctx, viewer.ID, []uint{read.ID}))
	require.NoError(t, f.graph.AssignRoleToUser(ctx, alice.ID, editor.ID))
	require.NoError(t, f.graph.AssignRoleToUser(ctx, alice.ID, viewer.ID))

	return f, alice
}

func TestResolverEditorScenario(t *testing.T) {
	f, alice := editorFixture(t)
	r := NewResolver(f.graph)
	ctx := context.Background()

	perms, err := r.ResolvePermissionCodes(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"POST_READ", "POST_WRITE"}, perms.Sorted())

	roles, err := r.ResolveRoleCodes(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"EDITOR", "VIEWER"}, roles.Sorted())

	testCases := []struct {
		name  string
		check func() (bool, error)
		want  bool
	}{
		{"has POST_WRITE", func() (bool, error) { return r.HasPermission(ctx, alice.ID, "POST_WRITE") }, true},
		{"lacks POST_DELETE", func() (bool, error) { return r.HasPermission(ctx, alice.ID, "POST_DELETE") }, false},
		{"codes are case sensitive", func() (bool, error) { return r.HasPermission(ctx, alice.ID, "post_write") }, false},
		{"has role EDITOR", func() (bool, error) { return r.HasRole(ctx, alice.ID, "EDITOR") }, true},
		{"lacks role ADMIN", func() (bool, error) { return r.HasRole(ctx, alice.ID, RoleAdmin) }, false},
		{
			"any of delete or read",
			func() (bool, error) { return r.HasAnyPermission(ctx, alice.ID, "POST_DELETE", "POST_READ") },
			true,
		},
		{"any of nothing", func() (bool, error) { return r.HasAnyPermission(ctx, alice.ID) }, false},
		{
			"all of read and write",
			func() (bool, error) { return r.HasAllPermissions(ctx, alice.ID, "POST_READ", "POST_WRITE") },
			true,
		},
		{
			"all of read and delete",
			func() (bool, error) { return r.HasAllPermissions(ctx, alice.ID, "POST_READ", "POST_DELETE") },
			false,
		},
		{"unknown principal", func() (bool, error) { return r.HasPermission(ctx, 9999, "POST_READ") }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.check()
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolverSeesChangesImmediately(t *testing.T) {
	f, alice := editorFixture(t)
	r := NewResolver(f.graph)
	ctx := context.Background()

	roles, err := f.graph.UserRoles(ctx, alice.ID)
	require.NoError(t, err)

	for _, role := range roles {
		require.NoError(t, f.graph.RevokeRoleFromUser(ctx, alice.ID, role.ID))
	}

	ok, err := r.HasPermission(ctx, alice.ID, "POST_READ")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolverIgnoresDisabledRole(t *testing.T) {
	f, alice := editorFixture(t)
	r := NewResolver(f.graph)
	ctx := context.Background()

	roles, err := f.graph.UserRoles(ctx, alice.ID)
	require.NoError(t, err)

	for _, role := range roles {
		if role.Code == "EDITOR" {
			require.NoError(t, f.graph.SetRoleStatus(ctx, role.ID, models.StatusDisabled))
		}
	}

	perms, err := r.ResolvePermissionCodes(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"POST_READ"}, perms.Sorted())
}

func TestResolverFailureDenies(t *testing.T) {
	r := NewResolver(staticGraph{perms: []string{"POST_READ"}, roles: []string{"EDITOR"}, err: errGraphDown})
	ctx := context.Background()

	checks := map[string]func() (bool, error){
		"permission": func() (bool, error) { return r.HasPermission(ctx, 1, "POST_READ") },
		"role":       func() (bool, error) { return r.HasRole(ctx, 1, "EDITOR") },
		"any":        func() (bool, error) { return r.HasAnyPermission(ctx, 1, "POST_READ") },
		"all":        func() (bool, error) { return r.HasAllPermissions(ctx, 1, "POST_READ") },
	}

	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			ok, err := check()
			assert.False(t, ok)
			assert.ErrorIs(t, err, iamerr.ErrResolutionFailed)
			assert.ErrorIs(t, err, errGraphDown)
		})
	}

	_, err := r.Snapshot(ctx, 1)
	assert.ErrorIs(t, err, iamerr.ErrResolutionFailed)
}

func TestResolverDeduplicates(t *testing.T) {
	r := NewResolver(staticGraph{perms: []string{"B", "A", "B", "A"}})

	set, err := r.ResolvePermissionCodes(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, set.Sorted())
}

func TestSnapshot(t *testing.T) {
	f, alice := editorFixture(t)

	g, err := NewResolver(f.graph).Snapshot(context.Background(), alice.ID)
	require.NoError(t, err)

	assert.Equal(t, alice.ID, g.PrincipalID)
	assert.Equal(t, []string{"EDITOR", "VIEWER"}, g.Roles)
	assert.Equal(t, []string{"POST_READ", "POST_WRITE"}, g.Permissions)
}
