package status

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/oshokin/thermal-monitor/internal/config"
	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
	model "github.com/oshokin/thermal-monitor/internal/domain/monitor"
	"github.com/oshokin/thermal-monitor/internal/logger"
	"github.com/oshokin/thermal-monitor/internal/service/common"
)

// Options controls the status command.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional gRPC server address override.
	ServerAddress string
	// Watch keeps polling until the context is canceled.
	Watch bool
	// PollInterval defines the interval between two polls in watch mode.
	PollInterval time.Duration
	// Events is the number of recent alarm events to print; zero prints none.
	Events int
	// Output receives the rendered report; os.Stdout when nil.
	Output io.Writer
}

// DefaultPollInterval is the watch interval used when none is set.
const DefaultPollInterval = 2 * time.Second

// reporter is the part of the client the command needs.
type reporter interface {
	GetStatus(ctx context.Context) (*model.Status, error)
	ListEvents(ctx context.Context, limit int) ([]domain.Event, error)
}

// Run prints the monitor status once, or repeatedly in watch mode.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "status")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	serverAddress := cfg.Server.GRPCAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	return poll(ctx, client, opts)
}

// poll renders one report and, in watch mode, keeps rendering on every tick.
// In watch mode a failed poll is logged and the next tick retries.
func poll(ctx context.Context, client reporter, opts *Options) error {
	err := report(ctx, client, opts)
	if !opts.Watch {
		return err
	}

	if err != nil {
		logger.ErrorKV(ctx, "Status poll failed", "error", err)
	}

	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")

			return nil
		case <-ticker.C:
			if err = report(ctx, client, opts); err != nil {
				logger.ErrorKV(ctx, "Status poll failed", "error", err)
			}
		}
	}
}

func report(ctx context.Context, client reporter, opts *Options) error {
	st, err := client.GetStatus(ctx)
	if err != nil {
		return err
	}

	var events []domain.Event
	if opts.Events > 0 {
		if events, err = client.ListEvents(ctx, opts.Events); err != nil {
			return err
		}
	}

	return render(opts.Output, st, events)
}

// render writes a human-readable report of st and events.
func render(w io.Writer, st *model.Status, events []domain.Event) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	lastFrame := "never"
	if !st.LastFrameAt.IsZero() {
		lastFrame = st.LastFrameAt.Format(time.RFC3339)
	}

	capture := "idle"
	if st.Capture.Active {
		capture = fmt.Sprintf("active (event %s, %d frames left)", st.Capture.EventID, st.Capture.Remaining)
	}

	fmt.Fprintf(tw, "Last frame:\t%s\n", lastFrame)
	fmt.Fprintf(tw, "Max temperature:\t%.1f°C\n", st.MaxTemperature)
	fmt.Fprintf(tw, "Capture:\t%s\n", capture)
	fmt.Fprintf(tw, "Buffered frames:\t%d\n", st.Capture.Buffered)

	fmt.Fprintln(tw, "\nZONE\tNAME\tREGION\tAVERAGE")

	for _, r := range st.Zones {
		avg := "n/a"
		if r.Valid {
			avg = fmt.Sprintf("%.1f°C", r.Average)
		}

		fmt.Fprintf(tw, "%d\t%s\t(%d,%d %dx%d)\t%s\n", r.Zone.ID, r.Zone.Name, r.Zone.X, r.Zone.Y, r.Zone.Width, r.Zone.Height, avg)
	}

	fmt.Fprintln(tw, "\nALARM\tZONE\tTHRESHOLD\tENABLED\tACKNOWLEDGED\tLAST TRIGGERED")

	for _, a := range st.Alarms {
		last := "-"
		if !a.LastTriggered.IsZero() {
			last = a.LastTriggered.Format(time.RFC3339)
		}

		ack := "no"
		if a.Acknowledged {
			ack = "by " + a.AcknowledgedBy
		}

		fmt.Fprintf(tw, "%d\t%d\t%.1f°C\t%t\t%s\t%s\n", a.ID, a.ZoneID, a.Threshold, a.Enabled, ack, last)
	}

	if len(events) > 0 {
		fmt.Fprintln(tw, "\nEVENT\tALARM\tZONE\tTEMPERATURE\tTIME")

		for _, e := range events {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f°C\t%s\n", e.ID, e.AlarmID, e.ZoneID, e.Temperature, e.Timestamp.Format(time.RFC3339))
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}
