package frames

// schema creates the capture tables. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS alarms (
	id BIGINT PRIMARY KEY,
	zone_id BIGINT NOT NULL,
	threshold DOUBLE PRECISION NOT NULL,
	enabled BOOLEAN NOT NULL DEFAULT TRUE,
	cooldown_seconds BIGINT NOT NULL DEFAULT 600,
	last_triggered TIMESTAMPTZ,
	acknowledged BOOLEAN NOT NULL DEFAULT FALSE,
	acknowledged_at TIMESTAMPTZ,
	acknowledged_by TEXT
)`,
	`CREATE TABLE IF NOT EXISTS alarm_events (
	id TEXT PRIMARY KEY,
	alarm_id BIGINT NOT NULL,
	zone_id BIGINT NOT NULL,
	temperature DOUBLE PRECISION NOT NULL,
	threshold DOUBLE PRECISION NOT NULL,
	event_type TEXT NOT NULL,
	acknowledged BOOLEAN NOT NULL DEFAULT FALSE,
	triggered_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS thermal_frames (
	id BIGSERIAL PRIMARY KEY,
	event_id TEXT,
	phase TEXT NOT NULL,
	captured_at TIMESTAMPTZ NOT NULL,
	frame BYTEA NOT NULL,
	frame_size INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_thermal_frames_captured_at ON thermal_frames(captured_at)`,
	`CREATE INDEX IF NOT EXISTS idx_thermal_frames_event ON thermal_frames(event_id)`,
	`CREATE INDEX IF NOT EXISTS idx_alarm_events_triggered_at ON alarm_events(triggered_at)`,
	`CREATE INDEX IF NOT EXISTS idx_alarm_events_alarm_id ON alarm_events(alarm_id)`,
	`CREATE INDEX IF NOT EXISTS idx_alarms_enabled ON alarms(enabled)`,
}
