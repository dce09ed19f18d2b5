package notify

import (
	"context"

	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
	"github.com/oshokin/thermal-monitor/internal/logger"
)

// LogChannel writes each event as a structured log line.
type LogChannel struct{}

// Name implements Channel.
func (LogChannel) Name() string {
	return "log"
}

// Send implements Channel.
func (LogChannel) Send(ctx context.Context, event domain.Event) error {
	logger.WarnKV(ctx, Summary(event),
		"event_id", event.ID, "alarm_id", event.AlarmID, "zone_id", event.ZoneID,
		"temperature", event.Temperature, "threshold", event.Threshold,
		"acknowledged", event.Acknowledged)

	return nil
}
