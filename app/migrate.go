package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/docket-app/docket/internal/daemon"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and seed the admin account",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return loadConfig()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		db, err := daemon.OpenDB(&cfg)
		if err != nil {
			return err
		}

		if err = daemon.Migrate(&cfg, db); err != nil {
			return err
		}

		log.Info().Str("engine", cfg.DB.GormEngine).Msg("database migrated")

		return nil
	},
}
