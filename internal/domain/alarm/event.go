package alarm

import "time"

// EventType classifies alarm events.
type EventType string

// EventTypeThreshold is produced when a zone reading reaches an alarm threshold.
const EventTypeThreshold EventType = "threshold"

// Event is an immutable record of a threshold breach.
type Event struct {
	// ID uniquely identifies the event; it also tags the frames captured for it.
	ID string `json:"id"`
	// AlarmID is the alarm that fired.
	AlarmID int64 `json:"alarm_id"`
	// ZoneID is the zone whose reading breached the threshold.
	ZoneID int64 `json:"zone_id"`
	// Temperature is the zone reading at breach time.
	Temperature float64 `json:"temperature"`
	// Threshold is the alarm threshold in effect at breach time.
	Threshold float64 `json:"threshold"`
	// Timestamp is the capture time of the breaching frame.
	Timestamp time.Time `json:"timestamp"`
	// Type is the event classification.
	Type EventType `json:"type"`
	// Acknowledged is the alarm acknowledgement state when the event was created.
	Acknowledged bool `json:"acknowledged"`
}
