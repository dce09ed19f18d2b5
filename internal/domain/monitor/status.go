package monitor

import (
	"time"

	"github.com/oshokin/thermal-monitor/internal/domain/alarm"
	"github.com/oshokin/thermal-monitor/internal/domain/zone"
)

// ZoneReading is the latest average of one zone.
type ZoneReading struct {
	// Zone is the zone definition.
	Zone zone.Zone `json:"zone"`
	// Average is the mean temperature in °C over the latest frame.
	Average float64 `json:"average"`
	// Valid is false when the zone covered no pixel or no frame was read yet.
	Valid bool `json:"valid"`
}

// Capture describes the event capture state.
type Capture struct {
	// Active tells whether post-event frames are being persisted.
	Active bool `json:"active"`
	// Remaining is the number of post-event frames still to persist.
	Remaining int `json:"remaining"`
	// EventID identifies the capture in progress.
	EventID string `json:"event_id,omitempty"`
	// Buffered is the number of frames in the pre-event window.
	Buffered int `json:"buffered"`
}

// Status is a point-in-time view of the monitor.
type Status struct {
	// Capture is the capture state.
	Capture Capture `json:"capture"`
	// LastFrameAt is the timestamp of the newest frame; zero before the first read.
	LastFrameAt time.Time `json:"last_frame_at"`
	// MaxTemperature is the hottest pixel of the newest frame.
	MaxTemperature float64 `json:"max_temperature"`
	// Zones lists the latest zone averages ordered by zone id.
	Zones []ZoneReading `json:"zones"`
	// Alarms lists the alarm configurations ordered by alarm id.
	Alarms []*alarm.Config `json:"alarms"`
}

// TriggerResult is the outcome of a manual capture request.
type TriggerResult struct {
	// EventID is the id assigned to the requested capture.
	EventID string `json:"event_id"`
	// Started is false when a capture was already in progress.
	Started bool `json:"started"`
}
