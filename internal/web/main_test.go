package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/db/dbtest"
	"github.com/keyward/keyward/internal/web/handler"
)

func newTestService(t *testing.T, mutate func(c *config.Config)) *Service {
	t.Helper()

	cfg := &config.Config{
		Title:     "keyward-test",
		DevMode:   true,
		Webserver: config.Webserver{Port: 8080, URL: "http://localhost:8080"},
		Auth: config.Auth{
			JWTSecret:         "test-secret",
			TokenTTL:          time.Hour,
			MaxFailedAttempts: 5,
			LockDuration:      30 * time.Minute,
		},
	}

	if mutate != nil {
		mutate(cfg)
	}

	deps, err := handler.NewDeps(cfg, dbtest.Open(t))
	require.NoError(t, err)

	s, err := New(cfg, deps)
	require.NoError(t, err)

	return s
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, string) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(raw)
}

func TestNewNilArguments(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrNilConfigOrDeps)
}

func TestCheckAlive(t *testing.T) {
	s := newTestService(t, nil)

	status, body := do(t, s.App, http.MethodGet, CheckAlivePath, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body)

	s.alive.Store(false)

	status, _ = do(t, s.App, http.MethodGet, CheckAlivePath, "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestMetrics(t *testing.T) {
	s := newTestService(t, nil)

	status, _ := do(t, s.App, http.MethodPost, "/api/v1/auth/login", `{"identifier":"ghost","password":"x"}`)
	require.Equal(t, http.StatusUnauthorized, status)

	status, body := do(t, s.App, http.MethodGet, MetricsPath, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "keyward_login_attempts_total")
	assert.Contains(t, body, `outcome="not_found"`)
}

func TestErrorEnvelope(t *testing.T) {
	s := newTestService(t, nil)

	testCases := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"unknown route", http.MethodGet, "/nope", http.StatusNotFound},
		{"admin route without token", http.MethodGet, "/api/roles", http.StatusUnauthorized},
		{"profile without token", http.MethodGet, "/api/v1/users/profile", http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := do(t, s.App, tc.method, tc.path, "")
			assert.Equal(t, tc.wantStatus, status)

			var res handler.Response
			require.NoError(t, json.Unmarshal([]byte(body), &res), body)
			assert.Equal(t, tc.wantStatus, res.Code)
			assert.NotEmpty(t, res.Message)
		})
	}
}

func TestLoginLimiter(t *testing.T) {
	s := newTestService(t, func(c *config.Config) {
		c.RateLimit = config.RateLimit{Enabled: true, Max: 2, Expiration: time.Minute, Storage: "memory"}
	})

	for range 2 {
		status, _ := do(t, s.App, http.MethodPost, "/api/v1/auth/login", `{}`)
		assert.Equal(t, http.StatusBadRequest, status)
	}

	status, body := do(t, s.App, http.MethodPost, "/api/v1/auth/login", `{}`)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Contains(t, body, "too many login attempts")

	// other routes are not limited
	status, _ = do(t, s.App, http.MethodPost, "/api/v1/auth/register", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUnknownLimiterStorage(t *testing.T) {
	cfg := &config.Config{RateLimit: config.RateLimit{Storage: "redis"}}

	_, err := NewLoginLimiter(cfg)
	assert.ErrorIs(t, err, config.ErrUnknownRateLimitStorage)
}
