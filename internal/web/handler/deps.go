package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/keyward/keyward/internal/auth"
	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/db/controller/principal"
	"github.com/keyward/keyward/internal/db/controller/rbac"
	"github.com/keyward/keyward/internal/logger"
)

// ErrNilConfigOrDB is returned when NewDeps gets a nil config or database.
var ErrNilConfigOrDB = errors.New("config or db is nil")

// Deps bundles the services shared by the handlers.
type Deps struct {
	Principals    *principal.Store
	Graph         *rbac.Store
	Hasher        auth.Hasher
	Authenticator *auth.Authenticator
	Accounts      *auth.LocalProvider
	Resolver      *auth.Resolver
	Tokens        auth.TokenIssuer

	// LoginLimiter guards the login route when set.
	LoginLimiter fiber.Handler
}

// NewDeps wires the stores and services over db.
func NewDeps(cfg *config.Config, db *gorm.DB) (*Deps, error) {
	if cfg == nil || db == nil {
		return nil, ErrNilConfigOrDB
	}

	principals, err := principal.New(db)
	if err != nil {
		return nil, err
	}

	graph, err := rbac.New(db)
	if err != nil {
		return nil, err
	}

	hasher := auth.NewPasswordHasher(nil)
	policy := auth.LockoutPolicy{
		MaxFailedAttempts: cfg.Auth.MaxFailedAttempts,
		LockDuration:      cfg.Auth.LockDuration,
	}

	return &Deps{
		Principals: principals,
		Graph:      graph,
		Hasher:     hasher,
		Authenticator: auth.NewAuthenticator(principals, hasher,
			auth.WithLockoutPolicy(policy),
			auth.WithLogger(logger.Component("authenticator")),
		),
		Accounts: auth.NewLocalProvider(principals, hasher),
		Resolver: auth.NewResolver(graph),
		Tokens:   auth.NewJWTIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, cfg.Auth.TokenTTL, nil),
	}, nil
}
