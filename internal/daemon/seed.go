package daemon

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/keyward/keyward/internal/auth"
	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/db/models"
	"github.com/keyward/keyward/internal/uniuri"
	"github.com/keyward/keyward/internal/web/handler"
)

const (
	adminUsername = "admin"
	adminEmail    = "admin@keyward.local"
	adminRoleName = "Administrator"
)

// Seed creates the built-in permissions and the ADMIN role holding all of them.
// When no principal exists yet an admin account is created and made a member of ADMIN.
// Running Seed again is harmless.
func Seed(ctx context.Context, cfg *config.Config, deps *handler.Deps) error {
	builtin := auth.BuiltinPermissions()

	for i := range builtin {
		if err := deps.Graph.SeedPermission(ctx, &builtin[i]); err != nil {
			return fmt.Errorf("seed permission %s: %w", builtin[i].Code, err)
		}
	}

	admin := &models.Role{
		Name:        adminRoleName,
		Code:        auth.RoleAdmin,
		Description: "Full access to the administration API",
	}
	if err := deps.Graph.SeedRole(ctx, admin); err != nil {
		return fmt.Errorf("seed role %s: %w", auth.RoleAdmin, err)
	}

	if err := grantMissing(ctx, deps, admin.ID, builtin); err != nil {
		return err
	}

	n, err := deps.Principals.CountAll(ctx)
	if err != nil {
		return err
	}

	if n > 0 {
		return nil
	}

	return seedAdmin(ctx, cfg, deps, admin.ID)
}

// grantMissing adds the built-in permissions the role lacks and keeps the rest of its set.
func grantMissing(ctx context.Context, deps *handler.Deps, roleID uint, perms []models.Permission) error {
	held, err := deps.Graph.RolePermissions(ctx, roleID)
	if err != nil {
		return err
	}

	have := make(map[uint]struct{}, len(held))
	for _, p := range held {
		have[p.ID] = struct{}{}
	}

	for _, p := range perms {
		if _, ok := have[p.ID]; ok {
			continue
		}

		if err := deps.Graph.AddPermission(ctx, roleID, p.ID); err != nil {
			return fmt.Errorf("grant %s to %s: %w", p.Code, auth.RoleAdmin, err)
		}
	}

	return nil
}

func seedAdmin(ctx context.Context, cfg *config.Config, deps *handler.Deps, roleID uint) error {
	password := cfg.Auth.AdminPassword
	generated := password == ""

	if generated {
		var err error
		if password, err = uniuri.TempPassword(); err != nil {
			return err
		}
	}

	u, err := deps.Accounts.CreateUser(ctx, auth.NewAccount{
		Username:    adminUsername,
		Email:       adminEmail,
		Password:    password,
		DisplayName: adminRoleName,
	})
	if err != nil {
		return fmt.Errorf("seed admin account: %w", err)
	}

	if err := deps.Graph.AssignRoleToUser(ctx, u.ID, roleID); err != nil {
		return fmt.Errorf("seed admin membership: %w", err)
	}

	ev := log.Warn().Uint64("user_id", u.ID).Str("username", u.Username)
	if generated {
		ev = ev.Str("password", password)
	}

	ev.Msg("initial admin account created, change its password")

	return nil
}
