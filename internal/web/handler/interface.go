package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/keyward/keyward/internal/config"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, deps *Deps) error
}

// ErrNilDependency is returned by Init when the app, config or dependencies are nil.
var ErrNilDependency = errors.New("app, cfg or deps is nil")
