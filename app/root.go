// Package app implements the main application commands.
package app

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/logger"
)

// EnvConfigPath is the environment variable naming the config directory when --config is not given.
const EnvConfigPath = "KEYWARD_CONFIG_PATH"

const configPathKey = "config_path"

var rootCmd = &cobra.Command{
	Use:   "keyward",
	Short: "Keyward is an identity and access control service",
	Long: `Keyward authenticates principals by account name, email or phone,
locks accounts after repeated failures and answers role and permission
checks over a JSON API.`,
	Args:         cobra.OnlyValidArgs,
	SilenceUsage: true,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringP("config", "c", "", "config directory holding main.toml (default ./etc/)")

	if err := viper.BindPFlag(configPathKey, rootCmd.PersistentFlags().Lookup("config")); err != nil {
		panic(err)
	}

	if err := viper.BindEnv(configPathKey, EnvConfigPath); err != nil {
		panic(err)
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration from the directory given by --config or KEYWARD_CONFIG_PATH.
func loadConfig() (config.Config, error) {
	path := viper.GetString(configPathKey)
	if path != "" && !strings.HasSuffix(path, string(os.PathSeparator)) {
		path += string(os.PathSeparator)
	}

	return config.ReadConfig(path)
}

// loadConfigAndLogger reads the configuration and initializes the global logger from it.
func loadConfigAndLogger(devMode bool) (config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, err
	}

	if devMode {
		cfg.DevMode = true
	}

	return cfg, logger.Init(cfg.Log)
}
