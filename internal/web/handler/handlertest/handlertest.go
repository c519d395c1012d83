// Package handlertest builds a fiber app over an in-memory database for handler tests.
package handlertest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/internal/auth"
	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/db/dbtest"
	"github.com/keyward/keyward/internal/db/models"
	"github.com/keyward/keyward/internal/web/handler"
)

// Password is the password of every principal created by Env.User.
const Password = "s3cret!"

// Env is a fiber app with its dependencies.
type Env struct {
	App  *fiber.App
	Cfg  *config.Config
	Deps *handler.Deps
}

// Result is a decoded response.
type Result struct {
	Status int
	Body   handler.Response
	Raw    []byte
}

// New returns an Env whose app uses handler.ErrorHandler and has every handler in services initialized.
func New(t *testing.T, services ...handler.Service) *Env {
	t.Helper()

	cfg := &config.Config{
		Title: "keyward-test",
		Auth: config.Auth{
			JWTSecret:         "test-secret",
			Issuer:            "keyward",
			TokenTTL:          time.Hour,
			MaxFailedAttempts: auth.DefaultMaxFailedAttempts,
			LockDuration:      auth.DefaultLockDuration,
		},
	}

	deps, err := handler.NewDeps(cfg, dbtest.Open(t))
	require.NoError(t, err)

	// cheap hashing for tests
	deps.Hasher = auth.NewPasswordHasher(&argon2id.Params{
		Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})
	deps.Authenticator = auth.NewAuthenticator(deps.Principals, deps.Hasher)
	deps.Accounts = auth.NewLocalProvider(deps.Principals, deps.Hasher)

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})

	for _, s := range services {
		require.NoError(t, s.Init(app, cfg, deps))
	}

	return &Env{App: app, Cfg: cfg, Deps: deps}
}

// User creates an active principal holding the given permission codes through a dedicated role
// and returns it with a bearer token.
func (e *Env) User(t *testing.T, name string, perms ...string) (*models.User, string) {
	t.Helper()

	ctx := context.Background()

	u, err := e.Deps.Accounts.Register(ctx, auth.NewAccount{
		Username: name,
		Email:    name + "@example.com",
		Password: Password,
	})
	require.NoError(t, err)

	if len(perms) > 0 {
		role := &models.Role{Name: name + " role"}
		require.NoError(t, e.Deps.Graph.CreateRole(ctx, role))

		ids := make([]uint, 0, len(perms))

		for _, code := range perms {
			p := &models.Permission{Code: code, Name: code, Module: "test"}
			require.NoError(t, e.Deps.Graph.SeedPermission(ctx, p))

			ids = append(ids, p.ID)
		}

		require.NoError(t, e.Deps.Graph.AssignPermissions(ctx, role.ID, ids))
		require.NoError(t, e.Deps.Graph.AssignRoleToUser(ctx, u.ID, role.ID))
	}

	tok, err := e.Deps.Tokens.Issue(u.ID)
	require.NoError(t, err)

	return u, tok.Value
}

// Do sends a request with an optional bearer token and JSON body.
func (e *Env) Do(t *testing.T, method, path, token string, body any) Result {
	t.Helper()

	var reader io.Reader = http.NoBody

	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := e.App.Test(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	res := Result{Status: resp.StatusCode, Raw: raw}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &res.Body), string(raw))
	}

	return res
}

// Decode unmarshals the data field of r into v.
func (r Result) Decode(t *testing.T, v any) {
	t.Helper()

	var env struct {
		Data json.RawMessage `json:"data"`
	}

	require.NoError(t, json.Unmarshal(r.Raw, &env))
	require.NoError(t, json.Unmarshal(env.Data, v))
}
