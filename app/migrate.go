package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keyward/keyward/internal/daemon"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schema and seed the built-in roles and permissions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfigAndLogger(false)
		if err != nil {
			return err
		}

		if _, err := daemon.Prepare(cmd.Context(), &cfg); err != nil {
			return err
		}

		log.Info().Str("engine", cfg.DB.GormEngine).Msg("database migrated and seeded")

		return nil
	},
}
