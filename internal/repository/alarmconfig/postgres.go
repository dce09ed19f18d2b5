package alarmconfig

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
)

var errNilDB = errors.New("alarm config repo: nil db")

// PostgresRepository keeps alarm configurations in the alarms table.
type PostgresRepository struct {
	// db is the shared connection pool.
	db *sql.DB
}

// NewPostgresRepository constructs a repository on top of db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// LoadAll reads every configuration.
func (r *PostgresRepository) LoadAll(ctx context.Context) (map[int64]*domain.Config, error) {
	if r == nil || r.db == nil {
		return nil, errNilDB
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, zone_id, threshold, enabled, cooldown_seconds,
	last_triggered, acknowledged, acknowledged_at, acknowledged_by
FROM alarms
ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query alarms: %w", err)
	}
	defer rows.Close()

	configs := make(map[int64]*domain.Config)

	for rows.Next() {
		var (
			cfg             domain.Config
			cooldownSeconds int64
			lastTriggered   sql.NullTime
			acknowledgedAt  sql.NullTime
			acknowledgedBy  sql.NullString
		)

		if err = rows.Scan(
			&cfg.ID, &cfg.ZoneID, &cfg.Threshold, &cfg.Enabled, &cooldownSeconds,
			&lastTriggered, &cfg.Acknowledged, &acknowledgedAt, &acknowledgedBy,
		); err != nil {
			return nil, fmt.Errorf("scan alarm: %w", err)
		}

		cfg.Cooldown = time.Duration(cooldownSeconds) * time.Second
		cfg.LastTriggered = lastTriggered.Time
		cfg.AcknowledgedAt = acknowledgedAt.Time
		cfg.AcknowledgedBy = acknowledgedBy.String

		configs[cfg.ID] = &cfg
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alarms: %w", err)
	}

	return configs, nil
}

// Save upserts the configuration by id.
func (r *PostgresRepository) Save(ctx context.Context, cfg *domain.Config) error {
	if r == nil || r.db == nil {
		return errNilDB
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO alarms (
	id, zone_id, threshold, enabled, cooldown_seconds,
	last_triggered, acknowledged, acknowledged_at, acknowledged_by
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
	zone_id = EXCLUDED.zone_id,
	threshold = EXCLUDED.threshold,
	enabled = EXCLUDED.enabled,
	cooldown_seconds = EXCLUDED.cooldown_seconds,
	last_triggered = EXCLUDED.last_triggered,
	acknowledged = EXCLUDED.acknowledged,
	acknowledged_at = EXCLUDED.acknowledged_at,
	acknowledged_by = EXCLUDED.acknowledged_by`,
		cfg.ID, cfg.ZoneID, cfg.Threshold, cfg.Enabled, int64(cfg.Cooldown/time.Second),
		nullTime(cfg.LastTriggered), cfg.Acknowledged, nullTime(cfg.AcknowledgedAt), nullString(cfg.AcknowledgedBy),
	)
	if err != nil {
		return fmt.Errorf("upsert alarm %d: %w", cfg.ID, err)
	}

	return nil
}

// Delete removes the configuration.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	if r == nil || r.db == nil {
		return errNilDB
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM alarms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete alarm %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete alarm %d: %w", id, err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	return nil
}

// nullTime maps the zero time to SQL NULL.
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// nullString maps the empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
