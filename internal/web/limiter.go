package web

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/storage/mysql/v2"
	"github.com/gofiber/storage/postgres/v3"

	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/db/dsn"
)

// NewLoginLimiter returns a per-client limiter for the login route.
// With sql storage the window is shared by every instance behind the load balancer.
func NewLoginLimiter(cfg *config.Config) (fiber.Handler, error) {
	storage, err := newLimiterStorage(cfg)
	if err != nil {
		return nil, err
	}

	return limiter.New(limiter.Config{
		Max:        cfg.RateLimit.Max,
		Expiration: cfg.RateLimit.Expiration,
		KeyGenerator: func(c fiber.Ctx) string {
			return "login:" + c.IP()
		},
		LimitReached: func(_ fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many login attempts, try again later")
		},
		Storage: storage,
	}), nil
}

// newLimiterStorage returns nil for the in-memory default.
func newLimiterStorage(cfg *config.Config) (fiber.Storage, error) {
	switch cfg.RateLimit.Storage {
	case "", "memory":
		return nil, nil //nolint:nilnil
	case config.EngineMySQL:
		return mysql.New(mysql.Config{
			ConnectionURI: dsn.MySQL(&cfg.DB),
			Table:         cfg.RateLimit.Table,
		}), nil
	case config.EnginePostgres:
		return postgres.New(postgres.Config{
			ConnectionURI: dsn.Postgres(&cfg.DB),
			Table:         cfg.RateLimit.Table,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownRateLimitStorage, cfg.RateLimit.Storage)
	}
}
