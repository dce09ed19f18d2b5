package notify

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
)

// ErrDelivery is returned when a channel rejects an event.
var ErrDelivery = errors.New("notification delivery failed")

// Channel delivers events to one destination.
type Channel interface {
	// Name identifies the channel in logs and metrics.
	Name() string
	// Send delivers one event.
	Send(ctx context.Context, event domain.Event) error
}

// Summary is the one-line human readable description of an event.
func Summary(event domain.Event) string {
	return fmt.Sprintf("Temperature alarm %d: zone %d reached %.1f°C (threshold %.1f°C)",
		event.AlarmID, event.ZoneID, event.Temperature, event.Threshold)
}
