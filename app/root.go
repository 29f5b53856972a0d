// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/docket-app/docket/internal/config"
	"github.com/docket-app/docket/internal/logger"
)

var (
	configPath string // Path to the configuration directory
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "docket",
	Short: "Docket is a small markdown document service",
	Long: `Docket lets users write markdown documents, share them publicly and
comment on them. Administrators manage accounts and the user settings catalog.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "Directory holding main.toml")
}

// loadConfig reads the configuration and initializes logging.
func loadConfig() error {
	var err error
	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err
	}

	return logger.Init(cfg.Log)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
