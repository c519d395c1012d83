// Package system serves statistics and access checks for operators.
package system

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"golang.org/x/sync/errgroup"

	"github.com/keyward/keyward/internal/auth"
	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/db/models"
	"github.com/keyward/keyward/internal/web/handler"
)

const (
	// Path is the base path of the system routes.
	Path = handler.AdminAPIPath + "/system"

	statsTimeout = 10 * time.Second
)

// Stats is the payload of GET /system/stats.
type Stats struct {
	TotalUsers        int64 `json:"totalUsers"`
	ActiveUsers       int64 `json:"activeUsers"`
	TotalRoles        int64 `json:"totalRoles"`
	SystemRoles       int64 `json:"systemRoles"`
	TotalPermissions  int64 `json:"totalPermissions"`
	SystemPermissions int64 `json:"systemPermissions"`
}

// PermissionCheckRequest is the body of POST /system/permissions/check.
type PermissionCheckRequest struct {
	UserID         uint64 `json:"userId"         validate:"required"`
	PermissionCode string `json:"permissionCode" validate:"required"`
}

// RoleCheckRequest is the body of POST /system/roles/check.
type RoleCheckRequest struct {
	UserID   uint64 `json:"userId"   validate:"required"`
	RoleCode string `json:"roleCode" validate:"required"`
}

// Service is the system handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) error {
	if app == nil || cfg == nil || deps == nil {
		return handler.ErrNilDependency
	}

	s.deps = deps

	router := app.Group(Path,
		auth.Authenticated(deps.Tokens),
		auth.RequirePermission(deps.Resolver, auth.PermSystemView),
	)

	router.Get("/stats", s.Stats)
	router.Post("/permissions/check", s.CheckPermission)
	router.Post("/roles/check", s.CheckRole)
	router.Get("/user/:id/permissions", s.UserPermissions)
	router.Get("/user/:id/roles", s.UserRoles)
	router.Get("/user/:id/grants", s.UserGrants)

	return nil
}

// Stats counts users, roles and permissions.
func (s *Service) Stats(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), statsTimeout)
	defer cancel()

	var st Stats

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		st.TotalUsers, err = s.deps.Principals.CountAll(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.ActiveUsers, err = s.deps.Principals.CountByStatus(gctx, models.UserStatusActive)
		return err
	})
	g.Go(func() (err error) {
		st.TotalRoles, st.SystemRoles, err = s.deps.Graph.CountRoles(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.TotalPermissions, st.SystemPermissions, err = s.deps.Graph.CountPermissions(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	return handler.OK(c, st)
}

// CheckPermission answers whether a user holds a permission code.
func (s *Service) CheckPermission(c fiber.Ctx) error {
	var req PermissionCheckRequest
	if err := handler.Bind(c, &req); err != nil {
		return err
	}

	ok, err := s.deps.Resolver.HasPermission(c.Context(), req.UserID, req.PermissionCode)
	if err != nil {
		return err
	}

	return handler.OK(c, ok)
}

// CheckRole answers whether a user is a member of a role code.
func (s *Service) CheckRole(c fiber.Ctx) error {
	var req RoleCheckRequest
	if err := handler.Bind(c, &req); err != nil {
		return err
	}

	ok, err := s.deps.Resolver.HasRole(c.Context(), req.UserID, req.RoleCode)
	if err != nil {
		return err
	}

	return handler.OK(c, ok)
}

// UserPermissions lists the effective permission codes of a user.
func (s *Service) UserPermissions(c fiber.Ctx) error {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		return err
	}

	set, err := s.deps.Resolver.ResolvePermissionCodes(c.Context(), id)
	if err != nil {
		return err
	}

	return handler.OK(c, set.Sorted())
}

// UserRoles lists the role codes of a user.
func (s *Service) UserRoles(c fiber.Ctx) error {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		return err
	}

	set, err := s.deps.Resolver.ResolveRoleCodes(c.Context(), id)
	if err != nil {
		return err
	}

	return handler.OK(c, set.Sorted())
}

// UserGrants returns roles and permissions of a user in one call.
func (s *Service) UserGrants(c fiber.Ctx) error {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		return err
	}

	g, err := s.deps.Resolver.Snapshot(c.Context(), id)
	if err != nil {
		return err
	}

	return handler.OK(c, g)
}
