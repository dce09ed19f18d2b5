package alarm

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestConfigClone verifies that Clone returns an independent copy and handles nil safely.
func TestConfigClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Config)(nil).Clone())

	c := &Config{ID: 1, ZoneID: 2, Threshold: 25, Enabled: true, Cooldown: DefaultCooldown}
	cloned := c.Clone()

	require.Equal(t, c, cloned)
	require.NotSame(t, c, cloned)

	cloned.Enabled = false
	require.True(t, c.Enabled)
}

// TestConfigMatches checks zone, enabled flag and the inclusive threshold.
func TestConfigMatches(t *testing.T) {
	t.Parallel()

	c := &Config{ID: 1, ZoneID: 1, Threshold: 25, Enabled: true}

	require.True(t, c.Matches(1, 25))
	require.True(t, c.Matches(1, 26))
	require.False(t, c.Matches(1, 24.99))
	require.False(t, c.Matches(2, 30))

	c.Enabled = false
	require.False(t, c.Matches(1, 30))
}

// TestConfigCoolingDown covers the never-fired, inside and outside window cases.
func TestConfigCoolingDown(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	c := &Config{Cooldown: time.Minute}

	require.False(t, c.CoolingDown(now))

	c.LastTriggered = now.Add(-30 * time.Second)
	require.True(t, c.CoolingDown(now))

	c.LastTriggered = now.Add(-time.Minute)
	require.False(t, c.CoolingDown(now))

	c.Cooldown = 0
	c.LastTriggered = now
	require.False(t, c.CoolingDown(now))
}

// TestConfigValidate rejects missing identifiers and negative cooldowns.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, (*Config)(nil).Validate(), ErrInvalidConfig)
	require.ErrorIs(t, (&Config{ZoneID: 1}).Validate(), ErrInvalidConfig)
	require.ErrorIs(t, (&Config{ID: 1}).Validate(), ErrInvalidConfig)
	require.ErrorIs(t, (&Config{ID: 1, ZoneID: 1, Cooldown: -time.Second}).Validate(), ErrInvalidConfig)
	require.NoError(t, (&Config{ID: 1, ZoneID: 1}).Validate())
}

// TestConfigJSON_CooldownSeconds encodes the cooldown in seconds and decodes it back.
func TestConfigJSON_CooldownSeconds(t *testing.T) {
	t.Parallel()

	cfg := Config{ID: 1, ZoneID: 2, Threshold: 40, Enabled: true, Cooldown: 90 * time.Second}

	data, err := json.Marshal(&cfg)
	require.NoError(t, err)
	require.Contains(t, string(data), `"cooldown_seconds":90`)
	require.NotContains(t, string(data), `"cooldown":`)

	var decoded Config
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"zone_id":1,"cooldown_seconds":1.5}`), &decoded))
	require.Equal(t, int64(3), decoded.ID)
	require.Equal(t, 1500*time.Millisecond, decoded.Cooldown)

	kept := Config{Cooldown: time.Minute}
	require.NoError(t, json.Unmarshal([]byte(`{"threshold":30}`), &kept))
	require.Equal(t, time.Minute, kept.Cooldown)
	require.InDelta(t, 30.0, kept.Threshold, 1e-9)
}

// TestActor_String renders the available parts.
func TestActor_String(t *testing.T) {
	t.Parallel()

	var nilActor *Actor

	require.Empty(t, nilActor.String())
	require.Equal(t, "ops@plc-01", (&Actor{Hostname: "plc-01", Username: "ops"}).String())
	require.Equal(t, "plc-01", (&Actor{Hostname: "plc-01"}).String())
	require.Equal(t, "ops", (&Actor{Username: "ops"}).String())
}
