package app

import (
	"github.com/spf13/cobra"

	"github.com/keyward/keyward/internal/daemon"
)

func init() { //nolint: gochecknoinits
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode")

	rootCmd.AddCommand(startCmd)
}

var (
	devMode bool

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the keyward web service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfigAndLogger(devMode)
			if err != nil {
				return err
			}

			d, err := daemon.New(cmd.Context(), &cfg)
			if err != nil {
				return err
			}

			return d.Start()
		},
	}
)
