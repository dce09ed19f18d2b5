package alarmconfig

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
)

var errTestDB = errors.New("connection reset")

// setupMockRepository returns a repository over sqlmock.
func setupMockRepository(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresRepository) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return db, mock, NewPostgresRepository(db)
}

// TestPostgresRepository_LoadAll maps nullable columns and the cooldown seconds.
func TestPostgresRepository_LoadAll(t *testing.T) {
	t.Parallel()
	db, mock, repo := setupMockRepository(t)
	defer db.Close()

	ackAt := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "zone_id", "threshold", "enabled", "cooldown_seconds",
		"last_triggered", "acknowledged", "acknowledged_at", "acknowledged_by",
	}).
		AddRow(1, 1, 25.0, true, 600, nil, false, nil, nil).
		AddRow(2, 2, 40.0, false, 30, ackAt, true, ackAt, "ops")

	mock.ExpectQuery(`SELECT id, zone_id, threshold`).WillReturnRows(rows)

	configs, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, configs, 2)

	require.Equal(t, 600*time.Second, configs[1].Cooldown)
	require.True(t, configs[1].LastTriggered.IsZero())
	require.Empty(t, configs[1].AcknowledgedBy)

	require.Equal(t, 30*time.Second, configs[2].Cooldown)
	require.Equal(t, ackAt, configs[2].AcknowledgedAt)
	require.Equal(t, "ops", configs[2].AcknowledgedBy)

	require.NoError(t, mock.ExpectationsWereMet())
}

// TestPostgresRepository_Save upserts with the id as conflict target.
func TestPostgresRepository_Save(t *testing.T) {
	t.Parallel()
	db, mock, repo := setupMockRepository(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO alarms`).
		WithArgs(int64(3), int64(1), 25.0, true, int64(600), nil, false, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), &domain.Config{
		ID: 3, ZoneID: 1, Threshold: 25, Enabled: true, Cooldown: domain.DefaultCooldown,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestPostgresRepository_SaveError propagates driver failures.
func TestPostgresRepository_SaveError(t *testing.T) {
	t.Parallel()
	db, mock, repo := setupMockRepository(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO alarms`).WillReturnError(errTestDB)

	err := repo.Save(context.Background(), &domain.Config{ID: 3, ZoneID: 1, Threshold: 25})
	require.ErrorIs(t, err, errTestDB)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestPostgresRepository_Delete reports unknown ids as ErrNotFound.
func TestPostgresRepository_Delete(t *testing.T) {
	t.Parallel()
	db, mock, repo := setupMockRepository(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM alarms`).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM alarms`).WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 1))
	require.ErrorIs(t, repo.Delete(context.Background(), 9), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
