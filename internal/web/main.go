// Package web serves the HTTP API.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/keyward/keyward/internal/auth"
	"github.com/keyward/keyward/internal/config"
	accesslog "github.com/keyward/keyward/internal/logger/adapter/fiber"
	"github.com/keyward/keyward/internal/web/handler"
	"github.com/keyward/keyward/internal/web/handler/admin/permission"
	"github.com/keyward/keyward/internal/web/handler/admin/role"
	"github.com/keyward/keyward/internal/web/handler/admin/user"
	"github.com/keyward/keyward/internal/web/handler/login"
	"github.com/keyward/keyward/internal/web/handler/logout"
	"github.com/keyward/keyward/internal/web/handler/profile"
	"github.com/keyward/keyward/internal/web/handler/system"
)

const (
	// CheckAlivePath answers load balancer health checks.
	CheckAlivePath = "/checkalive"

	// MetricsPath exposes prometheus metrics.
	MetricsPath = "/metrics"
)

// ErrNilConfigOrDeps is returned by New when cfg or deps is nil.
var ErrNilConfigOrDeps = errors.New("config and deps must not be nil")

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// New creates the web service and registers every handler.
func New(cfg *config.Config, deps *handler.Deps) (*Service, error) {
	if cfg == nil || deps == nil {
		return nil, ErrNilConfigOrDeps
	}

	app := fiber.New(
		fiber.Config{
			AppName:       cfg.Title,
			CaseSensitive: true,
			Immutable:     true,
			ErrorHandler:  handler.ErrorHandler,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(accesslog.New(accesslog.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
		PrincipalKey:  auth.PrincipalKey,
	}))

	service := &Service{
		App:          app,
		cfg:          cfg,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	app.Get(CheckAlivePath, service.checkAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	if cfg.RateLimit.Enabled && deps.LoginLimiter == nil {
		limiter, err := NewLoginLimiter(cfg)
		if err != nil {
			return nil, err
		}

		deps.LoginLimiter = limiter
	}

	services := []handler.Service{
		&login.Handler,
		&logout.Handler,
		&profile.Handler,
		&user.Handler,
		&role.Handler,
		&permission.Handler,
		&system.Handler,
	}

	for _, s := range services {
		if err := s.Init(app, cfg, deps); err != nil {
			return nil, err
		}
	}

	return service, nil
}

// Start listens on the configured port until the app is shut down.
func (s *Service) Start() error {
	addr := ":" + strconv.Itoa(s.cfg.Webserver.Port)

	log.Info().Str("addr", addr).Msg("http server listening")

	err := s.App.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// WaitShutdown blocks until SIGINT or SIGTERM and then shuts the server down.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

func (s *Service) checkAlive(c fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("SHUTTING DOWN")
	}

	return c.SendString("OK")
}
