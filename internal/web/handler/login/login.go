// Package login provides the registration and login endpoints.
package login

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/keyward/keyward/internal/auth"
	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/db/models"
	"github.com/keyward/keyward/internal/iamerr"
	"github.com/keyward/keyward/internal/web/handler"
)

const (
	// Path is the prefix of the authentication routes.
	Path = handler.APIPath + "/auth"
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username    string `json:"username"    validate:"required,min=3,max=50"`
	Email       string `json:"email"       validate:"required,email,max=255"`
	Phone       string `json:"phone"       validate:"omitempty,numeric,len=11"`
	Password    string `json:"password"    validate:"required,min=6,max=20"`
	DisplayName string `json:"displayName" validate:"max=100"`
}

// Request is the body of POST /auth/login.
type Request struct {
	Identifier string `json:"identifier" validate:"required,max=255"`
	Password   string `json:"password"   validate:"required,max=128"`
}

// Result is the payload of a successful login.
type Result struct {
	*auth.Token
	User *models.User `json:"user"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg  *config.Config
	deps *handler.Deps
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) error {
	if app == nil || cfg == nil || deps == nil {
		return handler.ErrNilDependency
	}

	s.cfg = cfg
	s.deps = deps

	router := app.Group(Path)
	router.Post("/register", s.Register)

	if deps.LoginLimiter != nil {
		router.Post("/login", deps.LoginLimiter, s.Login)
	} else {
		router.Post("/login", s.Login)
	}

	return nil
}

// Register creates an account.
func (s *Service) Register(c fiber.Ctx) error {
	var req RegisterRequest
	if err := handler.Bind(c, &req); err != nil {
		return err
	}

	u, err := s.deps.Accounts.Register(c.Context(), auth.NewAccount{
		Username:    req.Username,
		Email:       req.Email,
		Phone:       req.Phone,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return err
	}

	log.Info().Uint64("user_id", u.ID).Str("username", u.Username).Msg("account registered")

	return handler.Created(c, u)
}

// Login authenticates the identifier and password and issues a bearer token.
// Unknown accounts and wrong passwords get the same answer.
func (s *Service) Login(c fiber.Ctx) error {
	var req Request
	if err := handler.Bind(c, &req); err != nil {
		return err
	}

	u, err := s.deps.Authenticator.Authenticate(c.Context(), req.Identifier, req.Password, c.IP())
	if err != nil {
		if errors.Is(err, iamerr.ErrNotFound) || errors.Is(err, iamerr.ErrInvalidCredentials) {
			return fiber.NewError(fiber.StatusUnauthorized, handler.MsgInvalidLogin)
		}

		return err
	}

	tok, err := s.deps.Tokens.Issue(u.ID)
	if err != nil {
		return err
	}

	return handler.OK(c, Result{Token: tok, User: u})
}
