// Package dsn builds database connection strings from the configuration.
package dsn

import (
	"fmt"
	"net/url"

	"github.com/keyward/keyward/internal/config"
)

// Create builds the connection string for the configured engine.
// sqlite uses the file path as is.
func Create(cfg *config.DB) string {
	switch cfg.GormEngine {
	case config.EnginePostgres:
		return Postgres(cfg)
	case config.EngineSQLite:
		return cfg.Path
	default:
		return MySQL(cfg)
	}
}

// MySQL builds a go-sql-driver DSN.
// parseTime is required so DATETIME columns scan into time.Time.
func MySQL(cfg *config.DB) string {
	extras := cfg.Extras
	if extras == "" {
		extras = "charset=utf8mb4&parseTime=True&loc=UTC"
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		extras,
	)
}

// Postgres builds a postgres:// URL understood by pgx.
func Postgres(cfg *config.DB) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: cfg.Extras,
	}

	return u.String()
}
