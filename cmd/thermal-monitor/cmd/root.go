package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/thermal-monitor/internal/config"
	"github.com/oshokin/thermal-monitor/internal/service/monitor"
	"github.com/oshokin/thermal-monitor/internal/version"
)

var (
	// configPath to the configuration YAML file, shared by every subcommand.
	configPath string
	// httpAddress overrides the HTTP listen address from configuration.
	httpAddress string
	// mockSensor forces the simulated sensor.
	mockSensor bool

	// rootCmd represents the base command for running the thermal monitor.
	rootCmd = &cobra.Command{
		Use:   "thermal-monitor [listen-address]",
		Short: "Run the thermal monitor and serve its gRPC and HTTP APIs",
		Long: `Starts the thermal monitor: reads frames from the IR sensor, evaluates zone alarms,
captures the frames around every alarm event and delivers notifications.

The gRPC server listens on the port of server.grpc_address from the configuration file.
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:50051).
The HTTP API (real-time frame, zones, events, health, metrics) is served when
server.http_address or --http is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &monitor.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				HTTPAddress:   httpAddress,
				MockSensor:    mockSensor,
			}

			return monitor.Run(ctx, options)
		},
	}
)

// Execute runs the thermal-monitor CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext is canceled on SIGTERM or SIGINT.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&httpAddress, "http", "H", "", "HTTP listen address override (e.g., :8080)")
	rootCmd.Flags().BoolVar(&mockSensor, "mock-sensor", false, "use the simulated sensor regardless of configuration")
}
