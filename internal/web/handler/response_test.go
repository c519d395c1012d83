package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/internal/iamerr"
)

func TestErrorHandler(t *testing.T) {
	until := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", iamerr.NotFound(iamerr.EntityRole, uint(3)), http.StatusNotFound},
		{"conflict", iamerr.Duplicate(iamerr.EntityPermission, "code", "X"), http.StatusConflict},
		{"forbidden", iamerr.Forbidden(iamerr.EntityRole, uint(1), "system role"), http.StatusForbidden},
		{"invalid credentials", iamerr.InvalidCredentials(1), http.StatusUnauthorized},
		{"disabled", iamerr.Disabled(1), http.StatusForbidden},
		{"locked", iamerr.Locked(1, until), http.StatusLocked},
		{"validation", iamerr.Invalid("name", "must not be empty"), http.StatusBadRequest},
		{"resolution", iamerr.Resolution(errors.New("db down")), http.StatusServiceUnavailable},
		{"wrapped not found", fmt.Errorf("load: %w", iamerr.NotFound(iamerr.EntityPrincipal, 9)), http.StatusNotFound},
		{"fiber error", fiber.NewError(http.StatusTeapot, "short and stout"), http.StatusTeapot},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
			app.Get("/", func(_ fiber.Ctx) error { return tc.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", http.NoBody))
			require.NoError(t, err)

			defer resp.Body.Close()

			assert.Equal(t, tc.wantStatus, resp.StatusCode)

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			var res struct {
				Code    int             `json:"code"`
				Message string          `json:"message"`
				Data    json.RawMessage `json:"data"`
			}
			require.NoError(t, json.Unmarshal(raw, &res))
			assert.Equal(t, tc.wantStatus, res.Code)
			assert.NotEmpty(t, res.Message)

			if tc.wantStatus == http.StatusLocked {
				var data LockedData
				require.NoError(t, json.Unmarshal(res.Data, &data))
				assert.True(t, until.Equal(data.LockedUntil))
			}

			if tc.wantStatus == http.StatusInternalServerError {
				// internal details are not leaked
				assert.NotContains(t, res.Message, "boom")
			}
		})
	}
}

func TestBindValidation(t *testing.T) {
	type body struct {
		Name  string `json:"name"  validate:"required,max=5"`
		Email string `json:"email" validate:"omitempty,email"`
	}

	testCases := []struct {
		name      string
		payload   string
		wantField string
	}{
		{"valid", `{"name":"abc"}`, ""},
		{"missing name", `{}`, "name"},
		{"too long", `{"name":"abcdef"}`, "name"},
		{"bad email", `{"name":"abc","email":"nope"}`, "email"},
		{"malformed", `{"name":`, "body"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var bindErr error

			app := fiber.New()
			app.Post("/", func(c fiber.Ctx) error {
				var b body
				bindErr = Bind(c, &b)

				return nil
			})

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.payload))
			req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

			resp, err := app.Test(req)
			require.NoError(t, err)
			resp.Body.Close()

			if tc.wantField == "" {
				assert.NoError(t, bindErr)
				return
			}

			var e *iamerr.Error
			require.ErrorAs(t, bindErr, &e)
			assert.ErrorIs(t, bindErr, iamerr.ErrValidationFailed)
			assert.Equal(t, tc.wantField, e.Field)
		})
	}
}

func TestPaging(t *testing.T) {
	testCases := []struct {
		query    string
		wantPage int
		wantSize int
	}{
		{"", 1, DefaultPageSize},
		{"?page=3&size=50", 3, 50},
		{"?page=0&size=0", 1, DefaultPageSize},
		{"?page=x&size=1000", 1, DefaultPageSize},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			var page, size int

			app := fiber.New()
			app.Get("/", func(c fiber.Ctx) error {
				page, size = Paging(c)
				return nil
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tc.query, http.NoBody))
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, tc.wantPage, page)
			assert.Equal(t, tc.wantSize, size)
		})
	}
}
