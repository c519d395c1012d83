// Package profile serves the self-service account endpoints.
package profile

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/keyward/keyward/internal/auth"
	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/web/handler"
)

// Path is the prefix of the self-service routes.
const Path = handler.APIPath + "/users"

// UpdateRequest is the body of PUT /users/profile. Absent fields are left unchanged.
type UpdateRequest struct {
	DisplayName *string `json:"displayName" validate:"omitempty,min=1,max=100"`
	Bio         *string `json:"bio"         validate:"omitempty,max=500"`
	AvatarURL   *string `json:"avatarUrl"   validate:"omitempty,url,max=500"`
}

// PasswordRequest is the body of PUT /users/password.
type PasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6,max=20"`
}

// Service is the profile handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the profile handler.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) error {
	if app == nil || cfg == nil || deps == nil {
		return handler.ErrNilDependency
	}

	s.deps = deps

	router := app.Group(Path, auth.Authenticated(deps.Tokens))
	router.Get("/profile", s.Get)
	router.Put("/profile", s.Update)
	router.Put("/password", s.ChangePassword)

	return nil
}

// Get returns the authenticated principal.
func (s *Service) Get(c fiber.Ctx) error {
	id, _ := auth.PrincipalID(c)

	u, err := s.deps.Accounts.GetUser(c.Context(), id)
	if err != nil {
		return err
	}

	return handler.OK(c, u)
}

// Update applies a partial profile edit.
func (s *Service) Update(c fiber.Ctx) error {
	var req UpdateRequest
	if err := handler.Bind(c, &req); err != nil {
		return err
	}

	id, _ := auth.PrincipalID(c)

	u, err := s.deps.Accounts.UpdateProfile(c.Context(), id, auth.ProfileChanges{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		return err
	}

	return handler.OK(c, u)
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(c fiber.Ctx) error {
	var req PasswordRequest
	if err := handler.Bind(c, &req); err != nil {
		return err
	}

	id, _ := auth.PrincipalID(c)

	if err := s.deps.Accounts.ChangePassword(c.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}

	log.Info().Uint64("user_id", id).Msg("password changed")

	return handler.OK(c, nil)
}
