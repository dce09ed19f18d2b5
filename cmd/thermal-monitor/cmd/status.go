package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/thermal-monitor/internal/service/status"
)

var (
	// watch keeps the status command polling.
	watch bool
	// pollInterval is the watch polling interval.
	pollInterval time.Duration
	// eventLimit is the number of recent events printed by the status command.
	eventLimit int

	// statusCmd prints the monitor state.
	statusCmd = &cobra.Command{
		Use:   "status [server-address]",
		Short: "Print capture, zone and alarm state of a running monitor",
		Long: `Connects to a running thermal monitor and prints its capture state, zone averages
and alarm configuration. With --watch the report is refreshed until interrupted.
Server address can be provided as argument or loaded from configuration file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			var serverAddress string
			if len(args) > 0 {
				serverAddress = args[0]
			}

			return status.Run(ctx, &status.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				Watch:         watch,
				PollInterval:  pollInterval,
				Events:        eventLimit,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	statusCmd.Flags().BoolVarP(&watch, "watch", "w", false, "refresh the report until interrupted")
	statusCmd.Flags().DurationVarP(&pollInterval, "interval", "i", status.DefaultPollInterval, "refresh interval in watch mode")
	statusCmd.Flags().IntVarP(&eventLimit, "events", "e", 0, "number of recent alarm events to print")

	rootCmd.AddCommand(statusCmd)
}
