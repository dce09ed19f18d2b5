package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/thermal-monitor/internal/config"
)

var (
	// force allows init-config to overwrite an existing file.
	force bool

	// initConfigCmd writes a configuration file with every default applied.
	initConfigCmd = &cobra.Command{
		Use:   "init-config",
		Short: "Write a default configuration file",
		Long: `Writes the configuration file named by --config with every default applied:
simulated sensor, in-memory frame store and file-backed alarms.
An existing file is kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				if _, err := os.Stat(configPath); err == nil {
					return fmt.Errorf("%s already exists, use --force to overwrite", configPath)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("stat %s: %w", configPath, err)
				}
			}

			if err := config.Save(configPath, config.Default()); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", configPath)

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	initConfigCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	rootCmd.AddCommand(initConfigCmd)
}
