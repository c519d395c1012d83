// Package db opens the gorm connection for the configured engine and migrates the schema.
package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/db/dsn"
	"github.com/keyward/keyward/internal/db/models"
	"github.com/keyward/keyward/internal/logger/adapter/gormlogger"
)

// Dialector returns the gorm dialector for the configured engine.
func Dialector(cfg *config.DB) (gorm.Dialector, error) {
	conn := dsn.Create(cfg)

	switch cfg.GormEngine {
	case config.EngineMySQL, "":
		return mysql.Open(conn), nil
	case config.EnginePostgres:
		return postgres.Open(conn), nil
	case config.EngineSQLite:
		return sqlite.Open(conn), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownGormEngine, cfg.GormEngine)
	}
}

// Open connects to the database. Queries are logged through l.
func Open(cfg *config.Config, l zerolog.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(&cfg.DB)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(l, cfg.DevMode),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DB.GormEngine, err)
	}

	return conn, nil
}

// liveUniqueColumns must be unique among users that are not soft deleted.
var liveUniqueColumns = []string{"username", "email", "phone"} //nolint:gochecknoglobals

// Migrate creates or updates every table.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	return migrateLiveUnique(conn)
}

// migrateLiveUnique adds unique indexes that ignore soft deleted users.
// Postgres and SQLite use partial indexes. MySQL has none, so each column gets a
// virtual copy that is NULL once the row is deleted and the index covers the copy.
func migrateLiveUnique(conn *gorm.DB) error {
	m := conn.Migrator()

	for _, column := range liveUniqueColumns {
		index := "idx_users_live_" + column
		if m.HasIndex(&models.User{}, index) {
			continue
		}

		var stmts []string

		if conn.Dialector.Name() == "mysql" {
			live := "live_" + column
			if !m.HasColumn(&models.User{}, live) {
				stmts = append(stmts, fmt.Sprintf(
					"ALTER TABLE users ADD COLUMN %s varchar(255) GENERATED ALWAYS AS (IF(deleted_at IS NULL, %s, NULL)) VIRTUAL",
					live, column))
			}

			stmts = append(stmts, fmt.Sprintf("CREATE UNIQUE INDEX %s ON users (%s)", index, live))
		} else {
			stmts = append(stmts, fmt.Sprintf(
				"CREATE UNIQUE INDEX %s ON users (%s) WHERE deleted_at IS NULL", index, column))
		}

		for _, stmt := range stmts {
			if err := conn.Exec(stmt).Error; err != nil {
				return fmt.Errorf("migrate unique %s: %w", column, err)
			}
		}
	}

	return nil
}
