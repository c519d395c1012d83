// Package daemon wires the database, the services and the web server together.
package daemon

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/db"
	"github.com/keyward/keyward/internal/logger"
	"github.com/keyward/keyward/internal/web"
	"github.com/keyward/keyward/internal/web/handler"
)

// ErrNilConfig is returned when New gets no configuration.
var ErrNilConfig = errors.New("config is nil")

// Daemon represents the main application daemon.
type Daemon struct {
	webService *web.Service
}

// New opens and migrates the database, seeds the built-in grants and builds the web service.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	deps, err := Prepare(ctx, cfg)
	if err != nil {
		return nil, err
	}

	webService, err := web.New(cfg, deps)
	if err != nil {
		return nil, err
	}

	return &Daemon{webService: webService}, nil
}

// Prepare opens and migrates the database, seeds it and returns the handler dependencies.
func Prepare(ctx context.Context, cfg *config.Config) (*handler.Deps, error) {
	conn, err := db.Open(cfg, logger.Component("db"))
	if err != nil {
		return nil, err
	}

	if err = db.Migrate(conn); err != nil {
		return nil, err
	}

	deps, err := handler.NewDeps(cfg, conn)
	if err != nil {
		return nil, err
	}

	if err = Seed(ctx, cfg, deps); err != nil {
		return nil, err
	}

	return deps, nil
}

// Start runs the web service until a shutdown signal arrives and the server has stopped.
func (d *Daemon) Start() error {
	errs := make(chan error, 1)
	stopped := make(chan struct{})

	go func() {
		errs <- d.webService.Start()
	}()

	go func() {
		d.webService.WaitShutdown()
		close(stopped)
	}()

	select {
	case err := <-errs:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
			return err
		}

		<-stopped
	case <-stopped:
	}

	return nil
}
