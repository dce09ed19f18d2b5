package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/thermal-monitor/internal/domain/zone"
	"github.com/oshokin/thermal-monitor/internal/logger"
)

// TestValidate checks required fields and format validations for Settings.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Defaults alone are valid.
	settings := new(Config)
	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultGRPCAddress, settings.Server.GRPCAddress)

	// Bad socket.
	settings = &Config{Server: ServerConfig{GRPCAddress: "bad:address"}}
	require.Error(t, Validate(settings))

	// Unknown sensor source.
	settings = &Config{Sensor: SensorConfig{Source: "i2c"}}
	require.ErrorIs(t, Validate(settings), ErrInvalidSetting)

	// MQTT sensor without a broker.
	settings = &Config{Sensor: SensorConfig{Source: SensorMQTT, Topic: "frames"}}
	require.ErrorIs(t, Validate(settings), ErrMissingSetting)

	// Postgres without a DSN.
	settings = &Config{Storage: StorageConfig{Driver: StoragePostgres}}
	require.ErrorIs(t, Validate(settings), ErrMissingSetting)

	// Bad webhook.
	settings = &Config{Notifications: NotificationsConfig{WebhookURL: "not a url"}}
	require.Error(t, Validate(settings))

	// Redis stream without a server.
	settings = &Config{Notifications: NotificationsConfig{RedisStream: "alarms"}}
	require.ErrorIs(t, Validate(settings), ErrMissingSetting)

	// Unknown component log level.
	settings = &Config{Log: LogConfig{Components: map[string]string{"pipeline": "loud"}}}
	require.ErrorIs(t, Validate(settings), ErrInvalidSetting)
	require.ErrorIs(t, Validate(settings), logger.ErrUnknownLevel)

	// Known component log levels.
	settings = &Config{Log: LogConfig{Components: map[string]string{"pipeline": "debug", "http": "warn"}}}
	require.NoError(t, Validate(settings))

	// Too many zones.
	settings = &Config{Zones: []zone.Zone{
		{ID: 1, Width: 1, Height: 1},
		{ID: 2, Width: 1, Height: 1},
		{ID: 3, Width: 1, Height: 1},
	}}
	require.ErrorIs(t, Validate(settings), zone.ErrZoneLimit)

	require.ErrorIs(t, Validate(nil), errConfigIsNotSet)
}

// TestDefault ensures defaults match the documented capture and alarm behavior.
func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()

	require.Equal(t, SensorMock, cfg.Sensor.Source)
	require.Equal(t, StorageMemory, cfg.Storage.Driver)
	require.Equal(t, StoreFile, cfg.Alarms.Store)
	require.Equal(t, DefaultBufferCapacity, cfg.Capture.BufferCapacity)
	require.Equal(t, DefaultPostEventFrames, cfg.Capture.PostEventFrames)
	require.Equal(t, DefaultEventLogSize, cfg.Alarms.EventLogSize)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.True(t, cfg.Alarms.CooldownEnforced())

	disabled := false
	cfg.Alarms.EnforceCooldown = &disabled
	require.False(t, cfg.Alarms.CooldownEnforced())
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		Server: ServerConfig{GRPCAddress: "127.0.0.1:50051", HTTPAddress: ":8080"},
		Sensor: SensorConfig{RefreshInterval: 250 * time.Millisecond},
		Zones:  []zone.Zone{{ID: 1, X: 2, Y: 3, Width: 4, Height: 5, Name: "Motor"}},
		Notifications: NotificationsConfig{
			WebhookURL: "https://hooks.local/thermal",
		},
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.Server, loaded.Server)
	require.Equal(t, 250*time.Millisecond, loaded.Sensor.RefreshInterval)
	require.Equal(t, settings.Zones, loaded.Zones)
	require.Equal(t, settings.Notifications.WebhookURL, loaded.Notifications.WebhookURL)

	// File exists with restricted permissions.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

// TestLoadMissingFile reports a read error.
func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
