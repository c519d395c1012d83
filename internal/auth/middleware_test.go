package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/internal/iamerr"
)

func newProtectedApp(tokens TokenIssuer, guard fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			var fe *fiber.Error
			switch {
			case errors.As(err, &fe):
				code = fe.Code
			case errors.Is(err, iamerr.ErrResolutionFailed):
				code = fiber.StatusServiceUnavailable
			}

			return c.Status(code).SendString(err.Error())
		},
	})

	app.Get("/secret", Authenticated(tokens), guard, func(c fiber.Ctx) error {
		id, _ := PrincipalID(c)
		return c.SendString(strconv.FormatUint(id, 10))
	})

	return app
}

func TestMiddleware(t *testing.T) {
	clock := newFakeClock()
	tokens := NewJWTIssuer([]byte("test-secret"), "keyward", time.Hour, clock)

	aliceToken, err := tokens.Issue(1)
	require.NoError(t, err)

	bobToken, err := tokens.Issue(2)
	require.NoError(t, err)

	expired, err := NewJWTIssuer([]byte("test-secret"), "keyward", time.Minute,
		&fakeClock{now: clock.Now().Add(-time.Hour)}).Issue(1)
	require.NoError(t, err)

	graph := principalGraph{
		1: {perms: []string{PermRoleManage}, roles: []string{RoleAdmin}},
		2: {perms: []string{PermSystemView}},
	}
	checker := NewResolver(graph)

	testCases := []struct {
		name       string
		guard      fiber.Handler
		header     string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "no header",
			guard:      RequirePermission(checker, PermRoleManage),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not a bearer header",
			guard:      RequirePermission(checker, PermRoleManage),
			header:     "Basic YWxpY2U6c2VjcmV0",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			guard:      RequirePermission(checker, PermRoleManage),
			header:     "Bearer garbage",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token",
			guard:      RequirePermission(checker, PermRoleManage),
			header:     "Bearer " + expired.Value,
			wantStatus: http.StatusUnauthorized,
			wantBody:   "token expired",
		},
		{
			name:       "permission granted",
			guard:      RequirePermission(checker, PermRoleManage),
			header:     "Bearer " + aliceToken.Value,
			wantStatus: http.StatusOK,
			wantBody:   "1",
		},
		{
			name:       "lowercase scheme",
			guard:      RequirePermission(checker, PermRoleManage),
			header:     "bearer " + aliceToken.Value,
			wantStatus: http.StatusOK,
		},
		{
			name:       "permission missing",
			guard:      RequirePermission(checker, PermRoleManage),
			header:     "Bearer " + bobToken.Value,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "role granted",
			guard:      RequireRole(checker, RoleAdmin),
			header:     "Bearer " + aliceToken.Value,
			wantStatus: http.StatusOK,
		},
		{
			name:       "role missing",
			guard:      RequireRole(checker, RoleAdmin),
			header:     "Bearer " + bobToken.Value,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "any permission",
			guard:      RequireAnyPermission(checker, PermRoleManage, PermSystemView),
			header:     "Bearer " + bobToken.Value,
			wantStatus: http.StatusOK,
			wantBody:   "2",
		},
		{
			name:       "all permissions",
			guard:      RequireAllPermissions(checker, PermRoleManage, PermSystemView),
			header:     "Bearer " + aliceToken.Value,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "resolution failure denies",
			guard:      RequirePermission(NewResolver(staticGraph{err: errGraphDown}), PermRoleManage),
			header:     "Bearer " + aliceToken.Value,
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := newProtectedApp(tokens, tc.guard)

			req := httptest.NewRequest(http.MethodGet, "/secret", http.NoBody)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)

			defer resp.Body.Close()

			assert.Equal(t, tc.wantStatus, resp.StatusCode)

			if tc.wantBody != "" {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Equal(t, tc.wantBody, string(body))
			}
		})
	}
}

// principalGraph serves codes per principal id.
type principalGraph map[uint64]staticGraph

func (g principalGraph) PermissionCodesByPrincipalID(_ context.Context, id uint64) ([]string, error) {
	return g[id].perms, nil
}

func (g principalGraph) RoleCodesByPrincipalID(_ context.Context, id uint64) ([]string, error) {
	return g[id].roles, nil
}
