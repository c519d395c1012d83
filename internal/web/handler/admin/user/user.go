// Package user provides handlers for managing users (CRUD) in admin area.
package user

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/keyward/keyward/internal/auth"
	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/db/controller/principal"
	"github.com/keyward/keyward/internal/db/models"
	"github.com/keyward/keyward/internal/web/handler"
)

// Path is the base path for user management.
const Path = handler.APIPath + "/admin/users"

// CreateRequest is the body of POST /admin/users.
type CreateRequest struct {
	Username    string `json:"username"    validate:"required,min=3,max=50"`
	Email       string `json:"email"       validate:"required,email,max=255"`
	Phone       string `json:"phone"       validate:"omitempty,numeric,len=11"`
	Password    string `json:"password"    validate:"required,min=6,max=20"`
	DisplayName string `json:"displayName" validate:"max=100"`
}

// UpdateRequest is the body of PUT /admin/users/:id. Absent fields are left unchanged.
type UpdateRequest struct {
	Email       *string `json:"email"       validate:"omitempty,email,max=255"`
	Phone       *string `json:"phone"       validate:"omitempty,numeric,len=11"`
	DisplayName *string `json:"displayName" validate:"omitempty,min=1,max=100"`
}

// StatusRequest is the body of PUT /admin/users/:id/status.
type StatusRequest struct {
	Status models.UserStatus `json:"status" validate:"required,oneof=active disabled"`
}

// ResetResult is the payload of a password reset.
type ResetResult struct {
	TemporaryPassword string `json:"temporaryPassword"`
}

// Service provides CRUD operations for users.
type Service struct {
	handler.Service
	cfg  *config.Config
	deps *handler.Deps
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) error {
	if app == nil || cfg == nil || deps == nil {
		return handler.ErrNilDependency
	}

	s.cfg = cfg
	s.deps = deps

	router := app.Group(Path,
		auth.Authenticated(deps.Tokens),
		auth.RequirePermission(deps.Resolver, auth.PermUserManage),
	)

	router.Get(handler.RouterRootPath, s.List)
	router.Post(handler.RouterRootPath, s.Create)
	router.Get("/:id", s.Get)
	router.Put("/:id", s.Update)
	router.Delete("/:id", s.Delete)
	router.Put("/:id/status", s.SetStatus)
	router.Put("/:id/password/reset", s.ResetPassword)
	router.Get("/:id/roles", s.Roles)
	router.Post("/:id/roles/:roleId", s.AssignRole)
	router.Delete("/:id/roles/:roleId", s.RevokeRole)

	return nil
}

// List returns one page of users, optionally filtered by keyword and status.
func (s *Service) List(c fiber.Ctx) error {
	page, size := handler.Paging(c)

	filter := principal.ListFilter{
		Keyword: strings.TrimSpace(c.Query("keyword")),
		Status:  models.UserStatus(c.Query("status")),
		Limit:   size,
		Offset:  (page - 1) * size,
	}

	users, total, err := s.deps.Accounts.ListUsers(c.Context(), filter)
	if err != nil {
		return err
	}

	return handler.OK(c, handler.Page[models.User]{Items: users, Total: total, Page: page, Size: size})
}

// Get returns one user.
func (s *Service) Get(c fiber.Ctx) error {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		return err
	}

	u, err := s.deps.Accounts.GetUser(c.Context(), id)
	if err != nil {
		return err
	}

	return handler.OK(c, u)
}

// Create adds a user.
func (s *Service) Create(c fiber.Ctx) error {
	var req CreateRequest
	if err := handler.Bind(c, &req); err != nil {
		return err
	}

	u, err := s.deps.Accounts.CreateUser(c.Context(), auth.NewAccount{
		Username:    req.Username,
		Email:       req.Email,
		Phone:       req.Phone,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return err
	}

	s.audit(c).Uint64("target_id", u.ID).Msg("user created")

	return handler.Created(c, u)
}

// Update edits email, phone and display name.
func (s *Service) Update(c fiber.Ctx) error {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateRequest
	if err := handler.Bind(c, &req); err != nil {
		return err
	}

	u, err := s.deps.Accounts.UpdateUser(c.Context(), id, auth.AccountChanges{
		Email:       req.Email,
		Phone:       req.Phone,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return err
	}

	return handler.OK(c, u)
}

// Delete soft deletes a user.
func (s *Service) Delete(c fiber.Ctx) error {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		return err
	}

	if self, _ := auth.PrincipalID(c); self == id {
		return fiber.NewError(fiber.StatusBadRequest, "you can not delete your own account")
	}

	if err := s.deps.Accounts.Delete(c.Context(), id); err != nil {
		return err
	}

	s.audit(c).Uint64("target_id", id).Msg("user deleted")

	return handler.OK(c, nil)
}

// SetStatus enables or disables a user.
func (s *Service) SetStatus(c fiber.Ctx) error {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		return err
	}

	var req StatusRequest
	if err := handler.Bind(c, &req); err != nil {
		return err
	}

	u, err := s.deps.Accounts.SetStatus(c.Context(), id, req.Status)
	if err != nil {
		return err
	}

	s.audit(c).Uint64("target_id", id).Str("status", string(req.Status)).Msg("user status changed")

	return handler.OK(c, u)
}

// ResetPassword sets and returns a temporary password.
func (s *Service) ResetPassword(c fiber.Ctx) error {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		return err
	}

	temp, err := s.deps.Accounts.ResetPassword(c.Context(), id)
	if err != nil {
		return err
	}

	s.audit(c).Uint64("target_id", id).Msg("password reset")

	return handler.OK(c, ResetResult{TemporaryPassword: temp})
}

// Roles lists the roles of a user.
func (s *Service) Roles(c fiber.Ctx) error {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		return err
	}

	if _, err := s.deps.Accounts.GetUser(c.Context(), id); err != nil {
		return err
	}

	roles, err := s.deps.Graph.UserRoles(c.Context(), id)
	if err != nil {
		return err
	}

	return handler.OK(c, roles)
}

// AssignRole adds a user to a role.
func (s *Service) AssignRole(c fiber.Ctx) error {
	id, roleID, err := s.membership(c)
	if err != nil {
		return err
	}

	if err := s.deps.Graph.AssignRoleToUser(c.Context(), id, roleID); err != nil {
		return err
	}

	s.audit(c).Uint64("target_id", id).Uint("role_id", roleID).Msg("role assigned")

	return handler.OK(c, nil)
}

// RevokeRole removes a user from a role.
func (s *Service) RevokeRole(c fiber.Ctx) error {
	id, roleID, err := s.membership(c)
	if err != nil {
		return err
	}

	if err := s.deps.Graph.RevokeRoleFromUser(c.Context(), id, roleID); err != nil {
		return err
	}

	s.audit(c).Uint64("target_id", id).Uint("role_id", roleID).Msg("role revoked")

	return handler.OK(c, nil)
}

func (s *Service) membership(c fiber.Ctx) (uint64, uint, error) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		return 0, 0, err
	}

	roleID, err := handler.ParseSmallID(c, "roleId")
	if err != nil {
		return 0, 0, err
	}

	return id, roleID, nil
}

func (s *Service) audit(c fiber.Ctx) *zerolog.Event {
	actor, _ := auth.PrincipalID(c)
	return log.Info().Uint64("user_id", actor)
}
