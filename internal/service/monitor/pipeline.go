package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/thermal-monitor/internal/capture"
	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
	model "github.com/oshokin/thermal-monitor/internal/domain/monitor"
	"github.com/oshokin/thermal-monitor/internal/domain/thermal"
	"github.com/oshokin/thermal-monitor/internal/domain/zone"
	"github.com/oshokin/thermal-monitor/internal/logger"
	"github.com/oshokin/thermal-monitor/internal/metrics"
	"github.com/oshokin/thermal-monitor/internal/repository/frames"
	"github.com/oshokin/thermal-monitor/internal/sensor"
	alarmsvc "github.com/oshokin/thermal-monitor/internal/service/alarm"
)

// DefaultInterval is the frame read interval used when none is configured.
const DefaultInterval = time.Second

var (
	// ErrStaleSensor is returned by the sensor probe when no recent frame exists.
	ErrStaleSensor = errors.New("no recent frame from sensor")
	// errPipelineDeps is returned when a required dependency is missing.
	errPipelineDeps = errors.New("pipeline requires a reader, a coordinator, zones and an evaluator")
)

// Notifier accepts alarm events for asynchronous delivery.
type Notifier interface {
	Notify(ctx context.Context, event domain.Event) error
}

// Deps holds the pipeline collaborators.
type Deps struct {
	// Reader supplies frames.
	Reader sensor.Reader
	// Coordinator buffers frames and persists captures.
	Coordinator *capture.Coordinator
	// Zones lists the monitored regions.
	Zones *zone.Registry
	// Evaluator checks zone averages against alarms.
	Evaluator *alarmsvc.Evaluator
	// Events persists alarm events; optional.
	Events frames.EventStore
	// Notifier delivers alarm events; optional.
	Notifier Notifier
	// Interval is the time between frame reads.
	Interval time.Duration
}

// Pipeline is the frame processing loop.
type Pipeline struct {
	// deps holds the collaborators.
	deps Deps
	// latest is the newest processed frame.
	latest thermal.Entry
	// hasLatest is false until the first frame was processed.
	hasLatest bool
	// mu protects latest and hasLatest.
	mu sync.RWMutex
	// admin serializes zone and alarm changes.
	admin sync.Mutex
}

// NewPipeline validates deps and creates a pipeline.
func NewPipeline(deps Deps) (*Pipeline, error) {
	if deps.Reader == nil || deps.Coordinator == nil || deps.Zones == nil || deps.Evaluator == nil {
		return nil, errPipelineDeps
	}

	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}

	return &Pipeline{deps: deps}, nil
}

// Run reads and processes a frame every interval until ctx is canceled.
// A failed read skips the cycle; the loop never stops on sensor errors.
func (p *Pipeline) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "pipeline")

	logger.InfoKV(ctx, "Pipeline started", "interval", p.deps.Interval.String())

	ticker := time.NewTicker(p.deps.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Pipeline stopped")

			return nil
		case <-ticker.C:
			frame, err := p.deps.Reader.ReadFrame(ctx)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}

				logger.ErrorKV(ctx, "Frame read failed, skipping cycle", "error", err)

				continue
			}

			p.Process(ctx, &frame, time.Now())
		}
	}
}

// Process runs one frame through the pipeline and returns the alarm events it raised.
// The frame is always recorded; the first event of the frame names the capture.
func (p *Pipeline) Process(ctx context.Context, frame *thermal.Frame, ts time.Time) []domain.Event {
	metrics.IncFrameCaptured()

	p.mu.Lock()
	p.latest = thermal.Entry{Timestamp: ts, Frame: *frame}
	p.hasLatest = true
	p.mu.Unlock()

	p.deps.Coordinator.RecordFrame(ctx, frame, ts)

	var events []domain.Event

	for _, z := range p.deps.Zones.List() {
		avg, ok := z.Average(frame)
		if !ok {
			continue
		}

		if event := p.deps.Evaluator.Check(ctx, z.ID, avg, ts); event != nil {
			events = append(events, *event)
		}
	}

	if len(events) == 0 {
		return nil
	}

	p.deps.Coordinator.TriggerEvent(ctx, events[0].ID)

	for _, event := range events {
		p.publish(ctx, event)
	}

	return events
}

// Latest returns the newest processed frame.
func (p *Pipeline) Latest() (thermal.Entry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.latest, p.hasLatest
}

// ZoneReadings returns each zone's average over the newest frame, ordered by zone id.
func (p *Pipeline) ZoneReadings() []model.ZoneReading {
	entry, ok := p.Latest()

	zones := p.deps.Zones.List()
	readings := make([]model.ZoneReading, 0, len(zones))

	for _, z := range zones {
		reading := model.ZoneReading{Zone: z}
		if ok {
			reading.Average, reading.Valid = z.Average(&entry.Frame)
		}

		readings = append(readings, reading)
	}

	return readings
}

// Status returns a point-in-time view of the monitor.
func (p *Pipeline) Status(context.Context) *model.Status {
	st := p.deps.Coordinator.Status()
	status := &model.Status{
		Capture: model.Capture{
			Active:    st.Active,
			Remaining: st.Remaining,
			EventID:   st.EventID,
			Buffered:  st.Buffered,
		},
		Zones:  p.ZoneReadings(),
		Alarms: p.deps.Evaluator.Alarms(),
	}

	if entry, ok := p.Latest(); ok {
		status.LastFrameAt = entry.Timestamp
		status.MaxTemperature = float64(entry.Frame.Max())
	}

	return status
}

// TriggerCapture starts a manual capture under a fresh event id.
func (p *Pipeline) TriggerCapture(ctx context.Context) model.TriggerResult {
	eventID := uuid.NewString()

	return model.TriggerResult{
		EventID: eventID,
		Started: p.deps.Coordinator.TriggerEvent(ctx, eventID),
	}
}

// AcknowledgeAlarm acknowledges an alarm on behalf of actor.
func (p *Pipeline) AcknowledgeAlarm(ctx context.Context, alarmID int64, actor string) (*domain.Config, error) {
	return p.deps.Evaluator.Acknowledge(ctx, alarmID, actor)
}

// Events returns recent alarm events, oldest first.
func (p *Pipeline) Events(_ context.Context, limit int) []domain.Event {
	return p.deps.Evaluator.Events(limit)
}

// AlarmCount returns the number of configured alarms.
func (p *Pipeline) AlarmCount() int {
	return len(p.deps.Evaluator.Alarms())
}

// SensorProbe returns a reader that serves the newest frame while it is younger than maxAge.
// Health checks use it so they never compete with the pipeline for sensor frames.
func (p *Pipeline) SensorProbe(maxAge time.Duration) sensor.Reader {
	return sensor.ReaderFunc(func(context.Context) (thermal.Frame, error) {
		entry, ok := p.Latest()
		if !ok {
			return thermal.Frame{}, ErrStaleSensor
		}

		if age := time.Since(entry.Timestamp); age > maxAge {
			return thermal.Frame{}, fmt.Errorf("%w: last frame %s ago", ErrStaleSensor, age.Round(time.Millisecond))
		}

		return entry.Frame, nil
	})
}

// publish stores and notifies one event. Failures are logged only.
func (p *Pipeline) publish(ctx context.Context, event domain.Event) {
	if p.deps.Events != nil {
		if err := p.deps.Events.SaveEvent(ctx, event); err != nil {
			logger.ErrorKV(ctx, "Failed to persist alarm event", "event_id", event.ID, "error", err)
		}
	}

	if p.deps.Notifier != nil {
		if err := p.deps.Notifier.Notify(ctx, event); err != nil {
			logger.WarnKV(ctx, "Alarm notification not queued", "event_id", event.ID, "error", err)
		}
	}
}
