package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

type localsKey int

// PrincipalKey is the fiber locals key set by Authenticated to the principal id (uint64).
const PrincipalKey localsKey = iota

const bearerPrefix = "Bearer "

// AccessChecker answers access decisions. *Resolver implements it.
type AccessChecker interface {
	HasPermission(ctx context.Context, principalID uint64, code string) (bool, error)
	HasRole(ctx context.Context, principalID uint64, code string) (bool, error)
	HasAnyPermission(ctx context.Context, principalID uint64, codes ...string) (bool, error)
	HasAllPermissions(ctx context.Context, principalID uint64, codes ...string) (bool, error)
}

// Authenticated verifies the bearer token and stores the principal id in the request locals.
func Authenticated(tokens TokenIssuer) fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}

		id, err := tokens.Verify(strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				return fiber.NewError(fiber.StatusUnauthorized, "token expired")
			}

			log.Debug().Err(err).Str("ip", c.IP()).Msg("bearer token rejected")

			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(PrincipalKey, id)

		return c.Next()
	}
}

// PrincipalID returns the id stored by Authenticated.
func PrincipalID(c fiber.Ctx) (uint64, bool) {
	id, ok := c.Locals(PrincipalKey).(uint64)
	return id, ok && id > 0
}

// RequirePermission allows the request only when the principal holds code.
// A resolution failure is returned to the error handler and the request is denied.
func RequirePermission(checker AccessChecker, code string) fiber.Handler {
	return guard(func(ctx context.Context, id uint64) (bool, error) {
		return checker.HasPermission(ctx, id, code)
	}, "permission", []string{code})
}

// RequireRole allows the request only when the principal is a member of role code.
func RequireRole(checker AccessChecker, code string) fiber.Handler {
	return guard(func(ctx context.Context, id uint64) (bool, error) {
		return checker.HasRole(ctx, id, code)
	}, "role", []string{code})
}

// RequireAnyPermission allows the request when the principal holds at least one of codes.
func RequireAnyPermission(checker AccessChecker, codes ...string) fiber.Handler {
	return guard(func(ctx context.Context, id uint64) (bool, error) {
		return checker.HasAnyPermission(ctx, id, codes...)
	}, "permissions", codes)
}

// RequireAllPermissions allows the request when the principal holds every one of codes.
func RequireAllPermissions(checker AccessChecker, codes ...string) fiber.Handler {
	return guard(func(ctx context.Context, id uint64) (bool, error) {
		return checker.HasAllPermissions(ctx, id, codes...)
	}, "permissions", codes)
}

func guard(check func(ctx context.Context, id uint64) (bool, error), what string, codes []string) fiber.Handler {
	return func(c fiber.Ctx) error {
		id, ok := PrincipalID(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}

		allowed, err := check(c.Context(), id)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", id).Strs(what, codes).Msg("access check failed")

			return err
		}

		if !allowed {
			log.Warn().Uint64("user_id", id).Strs(what, codes).Msg("access denied")

			return fiber.NewError(fiber.StatusForbidden, "access denied")
		}

		return c.Next()
	}
}
