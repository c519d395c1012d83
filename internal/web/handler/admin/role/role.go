// Package role provides handlers for managing roles and their permission sets.
package role

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/keyward/keyward/internal/auth"
	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/db/models"
	"github.com/keyward/keyward/internal/web/handler"
)

// Path is the base path for role management.
const Path = handler.AdminAPIPath + "/roles"

// Request is the body of POST /roles and PUT /roles/:id.
type Request struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"max=255"`
}

// StatusRequest is the body of PUT /roles/:id/status.
type StatusRequest struct {
	Status models.Status `json:"status" validate:"required,oneof=enabled disabled"`
}

// AssignRequest is the body of POST /roles/:id/permissions. It replaces the permission set.
type AssignRequest struct {
	PermissionIDs []uint `json:"permissionIds" validate:"dive,gt=0"`
}

// Service provides CRUD operations for roles.
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
		auth.RequirePermission(deps.Resolver, auth.PermRoleManage),
	)

	router.Get(handler.RouterRootPath, s.List)
	router.Post(handler.RouterRootPath, s.Create)
	router.Get("/:id", s.Get)
	router.Put("/:id", s.Update)
	router.Delete("/:id", s.Delete)
	router.Put("/:id/status", s.SetStatus)
	router.Get("/:id/permissions", s.Permissions)
	router.Post("/:id/permissions", s.AssignPermissions)
	router.Post("/:id/permissions/:permissionId", s.AddPermission)
	router.Delete("/:id/permissions/:permissionId", s.RemovePermission)

	return nil
}

// List returns every role.
func (s *Service) List(c fiber.Ctx) error {
	roles, err := s.deps.Graph.ListRoles(c.Context())
	if err != nil {
		return err
	}

	return handler.OK(c, roles)
}

// Get returns one role.
func (s *Service) Get(c fiber.Ctx) error {
	id, err := handler.ParseSmallID(c, "id")
	if err != nil {
		return err
	}

	r, err := s.deps.Graph.GetRole(c.Context(), id)
	if err != nil {
		return err
	}

	return handler.OK(c, r)
}

// Create adds an enabled, non-system role. Its code is derived from the name.
func (s *Service) Create(c fiber.Ctx) error {
	var req Request
	if err := handler.Bind(c, &req); err != nil {
		return err
	}

	r := &models.Role{Name: req.Name, Description: req.Description}
	if err := s.deps.Graph.CreateRole(c.Context(), r); err != nil {
		return err
	}

	log.Info().Uint("role_id", r.ID).Str("code", r.Code).Msg("role created")

	return handler.Created(c, r)
}

// Update renames a role and edits its description.
func (s *Service) Update(c fiber.Ctx) error {
	id, err := handler.ParseSmallID(c, "id")
	if err != nil {
		return err
	}

	var req Request
	if err := handler.Bind(c, &req); err != nil {
		return err
	}

	r, err := s.deps.Graph.UpdateRole(c.Context(), id, req.Name, req.Description)
	if err != nil {
		return err
	}

	return handler.OK(c, r)
}

// SetStatus enables or disables a role.
func (s *Service) SetStatus(c fiber.Ctx) error {
	id, err := handler.ParseSmallID(c, "id")
	if err != nil {
		return err
	}

	var req StatusRequest
	if err := handler.Bind(c, &req); err != nil {
		return err
	}

	if err := s.deps.Graph.SetRoleStatus(c.Context(), id, req.Status); err != nil {
		return err
	}

	return handler.OK(c, nil)
}

// Delete removes a non-system role with its assignments and memberships.
func (s *Service) Delete(c fiber.Ctx) error {
	id, err := handler.ParseSmallID(c, "id")
	if err != nil {
		return err
	}

	if err := s.deps.Graph.DeleteRole(c.Context(), id); err != nil {
		return err
	}

	log.Info().Uint("role_id", id).Msg("role deleted")

	return handler.OK(c, nil)
}

// Permissions lists the permissions of a role.
func (s *Service) Permissions(c fiber.Ctx) error {
	id, err := handler.ParseSmallID(c, "id")
	if err != nil {
		return err
	}

	perms, err := s.deps.Graph.RolePermissions(c.Context(), id)
	if err != nil {
		return err
	}

	return handler.OK(c, perms)
}

// AssignPermissions replaces the permission set of a role.
func (s *Service) AssignPermissions(c fiber.Ctx) error {
	id, err := handler.ParseSmallID(c, "id")
	if err != nil {
		return err
	}

	var req AssignRequest
	if err := handler.Bind(c, &req); err != nil {
		return err
	}

	if err := s.deps.Graph.AssignPermissions(c.Context(), id, req.PermissionIDs); err != nil {
		return err
	}

	log.Info().Uint("role_id", id).Int("permissions", len(req.PermissionIDs)).Msg("role permissions replaced")

	return handler.OK(c, nil)
}

// AddPermission grants one permission to a role.
func (s *Service) AddPermission(c fiber.Ctx) error {
	id, permID, err := pair(c)
	if err != nil {
		return err
	}

	if err := s.deps.Graph.AddPermission(c.Context(), id, permID); err != nil {
		return err
	}

	return handler.OK(c, nil)
}

// RemovePermission revokes one permission from a role.
func (s *Service) RemovePermission(c fiber.Ctx) error {
	id, permID, err := pair(c)
	if err != nil {
		return err
	}

	if err := s.deps.Graph.RemovePermission(c.Context(), id, permID); err != nil {
		return err
	}

	return handler.OK(c, nil)
}

func pair(c fiber.Ctx) (uint, uint, error) {
	id, err := handler.ParseSmallID(c, "id")
	if err != nil {
		return 0, 0, err
	}

	permID, err := handler.ParseSmallID(c, "permissionId")
	if err != nil {
		return 0, 0, err
	}

	return id, permID, nil
}
