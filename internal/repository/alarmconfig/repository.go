package alarmconfig

import (
	"context"
	"errors"

	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
)

// Repository defines persistence operations for alarm configurations.
type Repository interface {
	// LoadAll returns every configuration keyed by alarm id.
	LoadAll(ctx context.Context) (map[int64]*domain.Config, error)
	// Save inserts or replaces the configuration with the same id.
	Save(ctx context.Context, cfg *domain.Config) error
	// Delete removes a configuration; ErrNotFound when it does not exist.
	Delete(ctx context.Context, id int64) error
}

// ErrNotFound is returned when deleting an unknown alarm.
var ErrNotFound = errors.New("alarm configuration not found")
