package frames

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/thermal-monitor/internal/domain/alarm"
	"github.com/oshokin/thermal-monitor/internal/domain/thermal"
)

var errTestInsert = errors.New("disk full")

// setupMockStore returns a store over sqlmock.
func setupMockStore(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresStore) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return db, mock, NewPostgresStore(db)
}

// testRecord builds a post-event record captured at ts.
func testRecord(ts time.Time) thermal.Record {
	return thermal.NewRecord("evt-1", thermal.PhasePostEvent, thermal.Entry{Timestamp: ts, Frame: thermal.Fill(21)})
}

// TestPostgresStore_WriteCommits wraps the insert in its own transaction.
func TestPostgresStore_WriteCommits(t *testing.T) {
	t.Parallel()
	db, mock, store := setupMockStore(t)
	defer db.Close()

	ts := time.Date(2025, 6, 10, 12, 0, 0, 500, time.UTC)
	rec := testRecord(ts)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO thermal_frames`).
		WithArgs("evt-1", "post", ts, rec.Payload, thermal.FrameByteLength).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Write(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestPostgresStore_WriteRollsBack discards the frame when the insert fails.
func TestPostgresStore_WriteRollsBack(t *testing.T) {
	t.Parallel()
	db, mock, store := setupMockStore(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO thermal_frames`).WillReturnError(errTestInsert)
	mock.ExpectRollback()

	err := store.Write(context.Background(), testRecord(time.Now()))
	require.ErrorIs(t, err, errTestInsert)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestPostgresStore_WriteRejectsSizeMismatch never touches the database for inconsistent records.
func TestPostgresStore_WriteRejectsSizeMismatch(t *testing.T) {
	t.Parallel()
	db, mock, store := setupMockStore(t)
	defer db.Close()

	rec := testRecord(time.Now())
	rec.ByteLength = 768

	require.ErrorIs(t, store.Write(context.Background(), rec), ErrFrameSize)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestPostgresStore_SaveEvent inserts the event row.
func TestPostgresStore_SaveEvent(t *testing.T) {
	t.Parallel()
	db, mock, store := setupMockStore(t)
	defer db.Close()

	ts := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	event := alarm.Event{
		ID: "evt-1", AlarmID: 1, ZoneID: 2, Temperature: 26, Threshold: 25,
		Timestamp: ts, Type: alarm.EventTypeThreshold,
	}

	mock.ExpectExec(`INSERT INTO alarm_events`).
		WithArgs("evt-1", int64(1), int64(2), 26.0, 25.0, "threshold", false, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SaveEvent(context.Background(), event))
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestPostgresStore_ListByEvent scans frames back in capture order.
func TestPostgresStore_ListByEvent(t *testing.T) {
	t.Parallel()
	db, mock, store := setupMockStore(t)
	defer db.Close()

	ts := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	payload := testRecord(ts).Payload

	rows := sqlmock.NewRows([]string{"event_id", "phase", "captured_at", "frame", "frame_size"}).
		AddRow("evt-1", "pre", ts, payload, thermal.FrameByteLength).
		AddRow("evt-1", "post", ts.Add(time.Second), payload, thermal.FrameByteLength)

	// Frames sharing a captured_at microsecond fall back to insert order.
	mock.ExpectQuery(`(?s)SELECT event_id, phase, captured_at, frame, frame_size.*ORDER BY captured_at, id$`).
		WithArgs("evt-1").
		WillReturnRows(rows)

	records, err := store.ListByEvent(context.Background(), "evt-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, thermal.PhasePreEvent, records[0].Phase)
	require.Equal(t, thermal.PhasePostEvent, records[1].Phase)

	frame, err := thermal.UnmarshalFrame(records[1].Payload)
	require.NoError(t, err)
	require.InDelta(t, 21.0, float64(frame[0]), 1e-9)

	require.NoError(t, mock.ExpectationsWereMet())
}

// TestPostgresStore_Migrate applies every schema statement.
func TestPostgresStore_Migrate(t *testing.T) {
	t.Parallel()
	db, mock, store := setupMockStore(t)
	defer db.Close()

	for range schema {
		mock.ExpectExec(`CREATE`).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
