package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/oshokin/thermal-monitor/internal/service/client"
)

var (
	// serverAddress overrides the monitor address for operator commands.
	serverAddress string

	// ackCmd acknowledges an alarm.
	ackCmd = &cobra.Command{
		Use:   "ack <alarm-id>",
		Short: "Acknowledge an alarm on a running monitor",
		Long: `Acknowledges the alarm with the given id. The acknowledgement records the current
user and hostname. Transient connection failures are retried until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			alarmID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse alarm id %q: %w", args[0], err)
			}

			ctx, stop := signalContext()
			defer stop()

			return client.Run(ctx, &client.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				Action:        client.ActionAcknowledge,
				AlarmID:       alarmID,
			})
		},
	}

	// triggerCmd starts a manual capture.
	triggerCmd = &cobra.Command{
		Use:   "trigger",
		Short: "Start a manual frame capture on a running monitor",
		Long: `Persists the buffered pre-event frames and the following post-event frames under a
new event id. The request is ignored while another capture is running.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return client.Run(ctx, &client.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				Action:        client.ActionTrigger,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	for _, c := range []*cobra.Command{ackCmd, triggerCmd} {
		c.Flags().StringVarP(&serverAddress, "server", "s", "", "monitor gRPC address override")
		rootCmd.AddCommand(c)
	}
}
