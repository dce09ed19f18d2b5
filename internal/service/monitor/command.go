package monitor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	api "github.com/oshokin/thermal-monitor/internal/api/grpc/monitor"
	"github.com/oshokin/thermal-monitor/internal/api/httpapi"
	"github.com/oshokin/thermal-monitor/internal/capture"
	"github.com/oshokin/thermal-monitor/internal/config"
	"github.com/oshokin/thermal-monitor/internal/domain/zone"
	"github.com/oshokin/thermal-monitor/internal/health"
	"github.com/oshokin/thermal-monitor/internal/logger"
	"github.com/oshokin/thermal-monitor/internal/metrics"
	alarmsvc "github.com/oshokin/thermal-monitor/internal/service/alarm"
)

// Options controls the monitor process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// HTTPAddress provides an optional listen address override for the HTTP server.
	HTTPAddress string
	// MockSensor forces the simulated sensor regardless of configuration.
	MockSensor bool
}

// Component names accepted by the log.components setting.
const (
	ComponentPipeline = "pipeline"
	ComponentNotify   = "notify"
	ComponentGRPC     = "grpc"
	ComponentHTTP     = "http"
)

// staleFrameFactor is how many read intervals may pass before the sensor is reported unhealthy.
const staleFrameFactor = 3

// shutdownTimeout bounds the HTTP server drain.
const shutdownTimeout = 5 * time.Second

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run loads configuration, builds every component and serves until ctx is canceled.
func Run(ctx context.Context, opts *Options) (err error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "thermal-monitor")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if opts.MockSensor {
		settings.Sensor.Source = config.SensorMock
	}

	if err = setupLogger(settings.Log); err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}

	levels, err := logger.ParseComponentLevels(settings.Log.Components)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}

	metrics.Init(prometheus.DefaultRegisterer)

	comp, err := openComponents(ctx, settings)
	if err != nil {
		return fmt.Errorf("open components: %w", err)
	}

	defer func() {
		err = multierr.Append(err, comp.close())
	}()

	pipe, err := buildPipeline(ctx, settings, comp)
	if err != nil {
		return err
	}

	listenAddress, err := resolveListenAddress(settings.Server.GRPCAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		loggerInterceptor(levels.Apply(ctx, ComponentGRPC)),
	))
	api.RegisterMonitorServer(grpcServer, api.NewServer(pipe))

	healthMonitor := &health.Monitor{
		Sensor:   pipe.SensorProbe(staleFrameFactor * settings.Sensor.RefreshInterval),
		Database: comp.store,
		Buffer:   pipe.deps.Coordinator,
		Alarms:   health.AlarmCounterFunc(pipe.AlarmCount),
		Timeout:  settings.Timeout,
	}

	httpAddress := settings.Server.HTTPAddress
	if opts.HTTPAddress != "" {
		httpAddress = opts.HTTPAddress
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return pipe.Run(levels.Apply(gctx, ComponentPipeline)) })
	g.Go(func() error { return comp.dispatcher.Run(levels.Apply(gctx, ComponentNotify)) })
	g.Go(func() error { return serveGRPC(levels.Apply(gctx, ComponentGRPC), grpcServer, lis) })

	if httpAddress != "" {
		handler := httpapi.NewServer(pipe, healthMonitor, prometheus.DefaultGatherer,
			httpapi.WithAdmin(pipe)).Router()
		g.Go(func() error { return serveHTTP(levels.Apply(gctx, ComponentHTTP), httpAddress, handler) })
	}

	logger.InfoKV(ctx, "Thermal monitor running",
		"grpc_address", listenAddress, "http_address", httpAddress,
		"sensor", settings.Sensor.Source, "zones", len(settings.Zones))

	return g.Wait()
}

// buildPipeline creates the capture, alarm and zone components on top of comp.
func buildPipeline(ctx context.Context, settings *config.Config, comp *components) (*Pipeline, error) {
	zones, err := zone.NewRegistry(settings.Zones...)
	if err != nil {
		return nil, fmt.Errorf("configure zones: %w", err)
	}

	evaluator, err := alarmsvc.NewEvaluator(ctx, comp.alarms,
		alarmsvc.WithZoneValidator(zones),
		alarmsvc.WithCooldownEnforcement(settings.Alarms.CooldownEnforced()),
		alarmsvc.WithEventLogSize(settings.Alarms.EventLogSize),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise alarms: %w", err)
	}

	if err = seedAlarms(ctx, evaluator, settings.Alarms.Definitions); err != nil {
		return nil, err
	}

	coordinator := capture.NewCoordinator(
		capture.NewFrameBuffer(settings.Capture.BufferCapacity),
		comp.store,
		settings.Capture.PostEventFrames,
	)

	return NewPipeline(Deps{
		Reader:      comp.reader,
		Coordinator: coordinator,
		Zones:       zones,
		Evaluator:   evaluator,
		Events:      comp.store,
		Notifier:    comp.dispatcher,
		Interval:    settings.Sensor.RefreshInterval,
	})
}

// seedAlarms creates the configured alarms that the store does not know yet.
func seedAlarms(ctx context.Context, evaluator *alarmsvc.Evaluator, defs []config.AlarmDefinition) error {
	for _, def := range defs {
		if _, err := evaluator.Alarm(def.ID); err == nil {
			continue
		}

		var opts []alarmsvc.AlarmOption

		if def.Enabled != nil {
			opts = append(opts, alarmsvc.WithEnabled(*def.Enabled))
		}

		if def.Cooldown > 0 {
			opts = append(opts, alarmsvc.WithCooldown(def.Cooldown))
		}

		if _, err := evaluator.AddAlarm(ctx, def.ID, def.ZoneID, def.Threshold, opts...); err != nil {
			return fmt.Errorf("seed alarm %d: %w", def.ID, err)
		}
	}

	return nil
}

// setupLogger applies the configured level and optional log file.
func setupLogger(cfg config.LogConfig) error {
	if level, ok := logger.ParseLogLevel(cfg.Level); ok {
		logger.SetLevel(level)
	}

	if cfg.File == "" {
		return nil
	}

	l, err := logger.NewWithFile(nil, logger.FileOptions{
		Path:       cfg.File,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
	})
	if err != nil {
		return err
	}

	logger.SetLogger(l)

	return nil
}

// serveGRPC serves until ctx is canceled, then stops gracefully.
func serveGRPC(ctx context.Context, server *grpc.Server, lis net.Listener) error {
	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		server.GracefulStop()
		close(done)
	}()

	if err := server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// loggerInterceptor hands the logger of base to every unary call.
func loggerInterceptor(base context.Context) grpc.UnaryServerInterceptor {
	l := logger.FromContext(base)

	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		return handler(logger.ToContext(ctx, l), req)
	}
}

// serveHTTP serves handler until ctx is canceled.
func serveHTTP(ctx context.Context, address string, handler http.Handler) error {
	server := &http.Server{
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return logger.ToContext(context.Background(), logger.FromContext(ctx))
		},
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve HTTP: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown HTTP: %w", err)
	}

	logger.Info(ctx, "HTTP server stopped")

	return nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	// Extract port from config address (e.g., "server.example.com:8080" -> ":8080").
	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	// Parse the address to extract port.
	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Return port-only listen address to bind on all interfaces.
	return ":" + port, nil
}
