// Package logout acknowledges logouts. Tokens are stateless, clients drop them.
package logout

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/keyward/keyward/internal/auth"
	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/web/handler"
	"github.com/keyward/keyward/internal/web/handler/login"
)

// Path is the logout route.
const Path = login.Path + "/logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	cfg *config.Config
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) error {
	if app == nil || cfg == nil || deps == nil {
		return handler.ErrNilDependency
	}

	s.cfg = cfg

	app.Post(Path, auth.Authenticated(deps.Tokens), s.Logout)

	return nil
}

// Logout acknowledges the logout of the authenticated principal.
func (s *Service) Logout(c fiber.Ctx) error {
	id, _ := auth.PrincipalID(c)
	log.Info().Uint64("user_id", id).Msg("logout")

	return handler.OK(c, nil)
}
