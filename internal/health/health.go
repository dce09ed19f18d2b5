package health

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/thermal-monitor/internal/logger"
	"github.com/oshokin/thermal-monitor/internal/sensor"
)

// Check names.
const (
	CheckSensor      = "sensor"
	CheckDatabase    = "database"
	CheckFrameBuffer = "frame_buffer"
	CheckAlarms      = "alarms"
)

// Report statuses.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// DefaultCheckTimeout bounds each probe.
const DefaultCheckTimeout = 2 * time.Second

// Pinger checks a database connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BufferSizer reports the number of buffered frames.
type BufferSizer interface {
	BufferLen() int
}

// AlarmCounter reports the configured alarms.
type AlarmCounter interface {
	Count() int
}

// AlarmCounterFunc adapts a function to AlarmCounter.
type AlarmCounterFunc func() int

// Count implements AlarmCounter.
func (f AlarmCounterFunc) Count() int {
	return f()
}

// Check is the outcome of one probe.
type Check struct {
	// Healthy is false when the probe failed.
	Healthy bool `json:"healthy"`
	// Detail describes the probe result.
	Detail string `json:"detail"`
}

// Report is the aggregated health of the monitor.
type Report struct {
	// Status is StatusOK when every check is healthy.
	Status string `json:"status"`
	// Checks maps check name to result.
	Checks map[string]Check `json:"checks"`
	// Timestamp is when the report was produced.
	Timestamp time.Time `json:"timestamp"`
}

// Healthy reports whether every check passed.
func (r *Report) Healthy() bool {
	return r.Status == StatusOK
}

// Monitor runs the probes. Nil dependencies are skipped, except the database
// which reports as not configured.
type Monitor struct {
	// Sensor is probed with one read.
	Sensor sensor.Reader
	// Database is pinged when set.
	Database Pinger
	// Buffer reports the pre-event window size.
	Buffer BufferSizer
	// Alarms reports the configured alarm count.
	Alarms AlarmCounter
	// Timeout bounds each probe; DefaultCheckTimeout when zero.
	Timeout time.Duration
}

// Report runs every probe.
func (m *Monitor) Report(ctx context.Context) Report {
	report := Report{
		Status:    StatusOK,
		Checks:    make(map[string]Check, 4),
		Timestamp: time.Now(),
	}

	if m.Sensor != nil {
		report.add(ctx, CheckSensor, m.probe(ctx, func(ctx context.Context) (string, error) {
			frame, err := m.Sensor.ReadFrame(ctx)
			if err != nil {
				return "", err
			}

			return fmt.Sprintf("max %.1f°C", frame.Max()), nil
		}))
	}

	if m.Database != nil {
		report.add(ctx, CheckDatabase, m.probe(ctx, func(ctx context.Context) (string, error) {
			if err := m.Database.Ping(ctx); err != nil {
				return "", err
			}

			return "reachable", nil
		}))
	} else {
		report.add(ctx, CheckDatabase, Check{Healthy: true, Detail: "not configured"})
	}

	if m.Buffer != nil {
		report.add(ctx, CheckFrameBuffer, Check{Healthy: true, Detail: fmt.Sprintf("%d frames buffered", m.Buffer.BufferLen())})
	}

	if m.Alarms != nil {
		report.add(ctx, CheckAlarms, Check{Healthy: true, Detail: fmt.Sprintf("%d alarms configured", m.Alarms.Count())})
	}

	return report
}

func (m *Monitor) probe(ctx context.Context, fn func(context.Context) (string, error)) Check {
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	detail, err := fn(ctx)
	if err != nil {
		return Check{Healthy: false, Detail: err.Error()}
	}

	return Check{Healthy: true, Detail: detail}
}

func (r *Report) add(ctx context.Context, name string, check Check) {
	r.Checks[name] = check

	if check.Healthy {
		logger.DebugKV(ctx, "Health check passed", "check", name, "detail", check.Detail)

		return
	}

	r.Status = StatusDegraded

	logger.WarnKV(ctx, "Health check failed", "check", name, "detail", check.Detail)
}
