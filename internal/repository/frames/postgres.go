package frames

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oshokin/thermal-monitor/internal/domain/alarm"
	"github.com/oshokin/thermal-monitor/internal/domain/thermal"
)

// DriverName is the database/sql driver used for Postgres.
const DriverName = "pgx"

var (
	errNilDB = errors.New("frame store: nil db")
	// ErrFrameSize is returned when a record's byte length does not match its payload.
	ErrFrameSize = errors.New("frame byte length mismatch")
)

// PoolOptions tunes the connection pool.
type PoolOptions struct {
	// MaxOpenConns caps open connections; zero keeps the driver default.
	MaxOpenConns int
	// MaxIdleConns caps idle connections; zero keeps the driver default.
	MaxIdleConns int
	// ConnMaxLifetime recycles connections older than this; zero disables recycling.
	ConnMaxLifetime time.Duration
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string, opts PoolOptions) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}

	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}

	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// PostgresStore writes frames to the thermal_frames table and events to alarm_events.
type PostgresStore struct {
	// db is the shared connection pool.
	db *sql.DB
}

// NewPostgresStore constructs a store on top of db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the tables and indexes used by the monitor.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errNilDB
	}

	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	return nil
}

// Write inserts one frame inside its own transaction.
func (s *PostgresStore) Write(ctx context.Context, record thermal.Record) (err error) {
	if s == nil || s.db == nil {
		return errNilDB
	}

	if record.ByteLength != len(record.Payload) {
		return fmt.Errorf("%w: declared %d, payload %d", ErrFrameSize, record.ByteLength, len(record.Payload))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin frame transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO thermal_frames (event_id, phase, captured_at, frame, frame_size)
VALUES ($1, $2, $3, $4, $5)`,
		nullString(record.EventID), string(record.Phase), record.CapturedAt.UTC(), record.Payload, record.ByteLength,
	)
	if err != nil {
		return fmt.Errorf("insert frame: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit frame: %w", err)
	}

	return nil
}

// SaveEvent inserts an alarm event; replays of the same id are ignored.
func (s *PostgresStore) SaveEvent(ctx context.Context, event alarm.Event) error {
	if s == nil || s.db == nil {
		return errNilDB
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO alarm_events (id, alarm_id, zone_id, temperature, threshold, event_type, acknowledged, triggered_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO NOTHING`,
		event.ID, event.AlarmID, event.ZoneID, event.Temperature, event.Threshold,
		string(event.Type), event.Acknowledged, event.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert alarm event %s: %w", event.ID, err)
	}

	return nil
}

// ListByEvent returns the frames of a capture ordered by capture time.
func (s *PostgresStore) ListByEvent(ctx context.Context, eventID string) ([]thermal.Record, error) {
	if s == nil || s.db == nil {
		return nil, errNilDB
	}

	// TIMESTAMPTZ keeps microseconds only, so frames read within the same
	// microsecond tie on captured_at. The serial id keeps them in insert order.
	rows, err := s.db.QueryContext(ctx, `
SELECT event_id, phase, captured_at, frame, frame_size
FROM thermal_frames
WHERE event_id = $1
ORDER BY captured_at, id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var out []thermal.Record

	for rows.Next() {
		var (
			rec   thermal.Record
			phase string
			event sql.NullString
		)

		if err = rows.Scan(&event, &phase, &rec.CapturedAt, &rec.Payload, &rec.ByteLength); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}

		rec.EventID = event.String
		rec.Phase = thermal.Phase(phase)
		out = append(out, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frames: %w", err)
	}

	return out, nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errNilDB
	}

	return s.db.PingContext(ctx)
}

// nullString maps the empty string to SQL NULL.
func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
