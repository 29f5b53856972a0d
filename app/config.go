package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docket-app/docket/internal/config"
)

func init() { //nolint: gochecknoinits
	dumpCmd.Flags().BoolVar(&dumpJSON, "json", false, "Print the configuration as JSON")
	configCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(configCmd)
}

var (
	dumpJSON bool

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := config.ReadConfig(configPath)
			if err != nil {
				return err
			}

			dump := config.DumpConfig
			if dumpJSON {
				dump = config.DumpConfigJSON
			}

			out, err := dump(c)
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), out)

			return err
		},
	}
)
