package config

import (
	"time"

	"github.com/keyward/keyward/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
	RateLimit RateLimit
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool   // disable recover middleware
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
}

// Auth holds authentication and lockout settings.
type Auth struct {
	JWTSecret         string        // HS256 signing secret
	Issuer            string        // iss claim of issued tokens
	TokenTTL          time.Duration // lifetime of issued tokens
	MaxFailedAttempts int           // consecutive failures before lockout
	LockDuration      time.Duration // lock window started by the tripping failure
	AdminPassword     string        // initial password of the seeded admin account
}

// RateLimit configures the per-client login limiter.
type RateLimit struct {
	Enabled    bool
	Max        int           // requests per window
	Expiration time.Duration // window length
	Storage    string        // memory, mysql or postgres
	Table      string        // table used by sql storages
}
