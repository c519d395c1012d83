// Package permission provides handlers for managing permissions.
package permission

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/keyward/keyward/internal/auth"
	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/db/models"
	"github.com/keyward/keyward/internal/web/handler"
)

// Path is the base path for permission management.
const Path = handler.AdminAPIPath + "/permissions"

// Request is the body of POST /permissions and PUT /permissions/:id.
type Request struct {
	Code        string        `json:"code"        validate:"required,max=100"`
	Name        string        `json:"name"        validate:"required,max=100"`
	Description string        `json:"description" validate:"max=255"`
	Module      string        `json:"module"      validate:"max=50"`
	Resource    string        `json:"resource"    validate:"max=100"`
	Action      string        `json:"action"      validate:"max=50"`
	Status      models.Status `json:"status"      validate:"omitempty,oneof=enabled disabled"`
}

func (r *Request) model() *models.Permission {
	return &models.Permission{
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		Module:      r.Module,
		Resource:    r.Resource,
		Action:      r.Action,
		Status:      r.Status,
	}
}

// Service provides CRUD operations for permissions.
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
		auth.RequirePermission(deps.Resolver, auth.PermPermissionManage),
	)

	router.Get(handler.RouterRootPath, s.List)
	router.Post(handler.RouterRootPath, s.Create)
	// registered before /:id so it is not taken for an id
	router.Get("/modules", s.Modules)
	router.Get("/:id", s.Get)
	router.Put("/:id", s.Update)
	router.Delete("/:id", s.Delete)

	return nil
}

// List returns every permission, or those of the module query parameter.
func (s *Service) List(c fiber.Ctx) error {
	perms, err := s.deps.Graph.ListPermissions(c.Context(), c.Query("module"))
	if err != nil {
		return err
	}

	return handler.OK(c, perms)
}

// Modules returns the distinct module tags.
func (s *Service) Modules(c fiber.Ctx) error {
	modules, err := s.deps.Graph.ListModules(c.Context())
	if err != nil {
		return err
	}

	return handler.OK(c, modules)
}

// Get returns one permission.
func (s *Service) Get(c fiber.Ctx) error {
	id, err := handler.ParseSmallID(c, "id")
	if err != nil {
		return err
	}

	p, err := s.deps.Graph.GetPermission(c.Context(), id)
	if err != nil {
		return err
	}

	return handler.OK(c, p)
}

// Create adds a non-system permission.
func (s *Service) Create(c fiber.Ctx) error {
	var req Request
	if err := handler.Bind(c, &req); err != nil {
		return err
	}

	p := req.model()
	if err := s.deps.Graph.CreatePermission(c.Context(), p); err != nil {
		return err
	}

	log.Info().Uint("permission_id", p.ID).Str("code", p.Code).Msg("permission created")

	return handler.Created(c, p)
}

// Update edits a permission. System permissions keep their code and module.
func (s *Service) Update(c fiber.Ctx) error {
	id, err := handler.ParseSmallID(c, "id")
	if err != nil {
		return err
	}

	var req Request
	if err := handler.Bind(c, &req); err != nil {
		return err
	}

	p, err := s.deps.Graph.UpdatePermission(c.Context(), id, req.model())
	if err != nil {
		return err
	}

	return handler.OK(c, p)
}

// Delete removes a non-system permission with its role assignments.
func (s *Service) Delete(c fiber.Ctx) error {
	id, err := handler.ParseSmallID(c, "id")
	if err != nil {
		return err
	}

	if err := s.deps.Graph.DeletePermission(c.Context(), id); err != nil {
		return err
	}

	log.Info().Uint("permission_id", id).Msg("permission deleted")

	return handler.OK(c, nil)
}
