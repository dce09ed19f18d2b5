package alarmconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
)

// TestFileRepository_MissingFileIsEmpty verifies LoadAll returns an empty set for a missing file.
func TestFileRepository_MissingFileIsEmpty(t *testing.T) {
	t.Parallel()
	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.yaml"))

	configs, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, configs)
}

// TestFileRepository_SaveLoad_Roundtrip ensures Save followed by LoadAll returns equal configurations.
func TestFileRepository_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()
	file := filepath.Join(t.TempDir(), "alarms.yaml")
	repo := NewFileRepository(file)
	ctx := context.Background()

	ts := time.Now().UTC().Truncate(time.Second)
	want := &domain.Config{
		ID:             2,
		ZoneID:         1,
		Threshold:      25.5,
		Enabled:        true,
		Cooldown:       domain.DefaultCooldown,
		LastTriggered:  ts,
		Acknowledged:   true,
		AcknowledgedAt: ts,
		AcknowledgedBy: "operator@host",
	}

	require.NoError(t, repo.Save(ctx, want))
	require.NoError(t, repo.Save(ctx, &domain.Config{ID: 1, ZoneID: 1, Threshold: 40}))

	got, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, want.Threshold, got[2].Threshold)
	require.Equal(t, want.Cooldown, got[2].Cooldown)
	require.True(t, got[2].Acknowledged)
	require.Equal(t, want.AcknowledgedBy, got[2].AcknowledgedBy)
	require.Equal(t, want.LastTriggered.Unix(), got[2].LastTriggered.Unix())
	require.False(t, got[1].Enabled)

	_, err = os.Stat(file)
	require.NoError(t, err)
}

// TestFileRepository_Delete removes existing entries and reports unknown ones.
func TestFileRepository_Delete(t *testing.T) {
	t.Parallel()
	repo := NewFileRepository(filepath.Join(t.TempDir(), "alarms.yaml"))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Config{ID: 1, ZoneID: 1, Threshold: 30, Enabled: true}))
	require.NoError(t, repo.Delete(ctx, 1))
	require.ErrorIs(t, repo.Delete(ctx, 1), ErrNotFound)

	configs, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Empty(t, configs)
}

// TestFileRepository_RejectsInvalid never writes configurations failing validation.
func TestFileRepository_RejectsInvalid(t *testing.T) {
	t.Parallel()
	repo := NewFileRepository(filepath.Join(t.TempDir(), "alarms.yaml"))

	err := repo.Save(context.Background(), &domain.Config{ID: 0, ZoneID: 1})
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}
