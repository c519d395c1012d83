package role_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/internal/auth"
	"github.com/keyward/keyward/internal/db/models"
	"github.com/keyward/keyward/internal/web/handler/admin/role"
	"github.com/keyward/keyward/internal/web/handler/handlertest"
)

func newEnv(t *testing.T) (*handlertest.Env, string) {
	t.Helper()

	env := handlertest.New(t, &role.Service{})
	_, token := env.User(t, "admin", auth.PermRoleManage)

	return env, token
}

func createRole(t *testing.T, env *handlertest.Env, token, name string) models.Role {
	t.Helper()

	res := env.Do(t, http.MethodPost, role.Path, token, role.Request{Name: name})
	require.Equal(t, http.StatusCreated, res.Status, string(res.Raw))

	var r models.Role
	res.Decode(t, &r)

	return r
}

func TestRequiresPermission(t *testing.T) {
	env, _ := newEnv(t)
	_, plain := env.User(t, "plain", auth.PermUserManage)

	res := env.Do(t, http.MethodGet, role.Path, plain, nil)
	assert.Equal(t, http.StatusForbidden, res.Status)
}

func TestRoleLifecycle(t *testing.T) {
	env, token := newEnv(t)

	r := createRole(t, env, token, "Content Editor")
	assert.Equal(t, "CONTENT_EDITOR", r.Code)
	assert.Equal(t, models.StatusEnabled, r.Status)
	assert.False(t, r.IsSystem)

	res := env.Do(t, http.MethodPost, role.Path, token, role.Request{Name: "Content Editor"})
	assert.Equal(t, http.StatusConflict, res.Status)

	res = env.Do(t, http.MethodPost, role.Path, token, role.Request{})
	assert.Equal(t, http.StatusBadRequest, res.Status)

	path := fmt.Sprintf("%s/%d", role.Path, r.ID)

	res = env.Do(t, http.MethodPut, path, token, role.Request{Name: "Senior Editor", Description: "edits"})
	require.Equal(t, http.StatusOK, res.Status, string(res.Raw))

	var updated models.Role
	res.Decode(t, &updated)
	assert.Equal(t, "Senior Editor", updated.Name)
	assert.Equal(t, "CONTENT_EDITOR", updated.Code, "code is stable across renames")

	res = env.Do(t, http.MethodPut, path+"/status", token, role.StatusRequest{Status: models.StatusDisabled})
	require.Equal(t, http.StatusOK, res.Status)

	res = env.Do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, res.Status)

	var got models.Role
	res.Decode(t, &got)
	assert.Equal(t, models.StatusDisabled, got.Status)

	res = env.Do(t, http.MethodGet, role.Path, token, nil)
	require.Equal(t, http.StatusOK, res.Status)

	var roles []models.Role
	res.Decode(t, &roles)
	assert.Len(t, roles, 2)

	res = env.Do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, res.Status)

	res = env.Do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
}

func TestSystemRoleCannotBeDeleted(t *testing.T) {
	env, token := newEnv(t)

	sys := &models.Role{Name: "Administrator", Code: auth.RoleAdmin}
	require.NoError(t, env.Deps.Graph.SeedRole(context.Background(), sys))

	res := env.Do(t, http.MethodDelete, fmt.Sprintf("%s/%d", role.Path, sys.ID), token, nil)
	assert.Equal(t, http.StatusForbidden, res.Status)
}

func TestRolePermissions(t *testing.T) {
	env, token := newEnv(t)
	ctx := context.Background()

	r := createRole(t, env, token, "Editor")
	path := fmt.Sprintf("%s/%d/permissions", role.Path, r.ID)

	var ids []uint

	for _, code := range []string{"POST_READ", "POST_WRITE", "POST_DELETE"} {
		p := &models.Permission{Code: code, Name: code, Module: "post"}
		require.NoError(t, env.Deps.Graph.CreatePermission(ctx, p))

		ids = append(ids, p.ID)
	}

	res := env.Do(t, http.MethodPost, path, token, role.AssignRequest{PermissionIDs: ids[:2]})
	require.Equal(t, http.StatusOK, res.Status, string(res.Raw))

	res = env.Do(t, http.MethodPost, path, token, role.AssignRequest{PermissionIDs: []uint{ids[0], 9999}})
	assert.Equal(t, http.StatusNotFound, res.Status, "unknown id aborts the replacement")

	res = env.Do(t, http.MethodPost, fmt.Sprintf("%s/%d", path, ids[2]), token, nil)
	require.Equal(t, http.StatusOK, res.Status)

	res = env.Do(t, http.MethodPost, fmt.Sprintf("%s/%d", path, ids[2]), token, nil)
	assert.Equal(t, http.StatusConflict, res.Status)

	res = env.Do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, res.Status)

	var perms []models.Permission
	res.Decode(t, &perms)
	assert.Len(t, perms, 3)

	res = env.Do(t, http.MethodDelete, fmt.Sprintf("%s/%d", path, ids[0]), token, nil)
	require.Equal(t, http.StatusOK, res.Status)

	res = env.Do(t, http.MethodDelete, fmt.Sprintf("%s/%d", path, ids[0]), token, nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
}
