package alarm

import (
	"encoding/json"
	"errors"
	"math"
	"time"
)

// DefaultCooldown is the cooldown applied when an alarm is created without one.
const DefaultCooldown = 600 * time.Second

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid alarm configuration")

// Config is the per-alarm configuration evaluated against zone readings.
type Config struct {
	// ID uniquely identifies the alarm.
	ID int64 `yaml:"id" json:"id"`
	// ZoneID references the zone the alarm watches.
	ZoneID int64 `yaml:"zone_id" json:"zone_id"`
	// Threshold is the temperature in °C at or above which the alarm fires.
	Threshold float64 `yaml:"threshold" json:"threshold"`
	// Enabled tells whether the alarm takes part in evaluation.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Cooldown is the minimum time between two events of the same alarm.
	// JSON carries it as cooldown_seconds.
	Cooldown time.Duration `yaml:"cooldown" json:"-"`
	// LastTriggered is the timestamp of the last fired event.
	LastTriggered time.Time `yaml:"last_triggered,omitempty" json:"last_triggered,omitempty"`
	// Acknowledged tells whether an operator acknowledged the alarm.
	Acknowledged bool `yaml:"acknowledged" json:"acknowledged"`
	// AcknowledgedAt is when the alarm was acknowledged.
	AcknowledgedAt time.Time `yaml:"acknowledged_at,omitempty" json:"acknowledged_at,omitempty"`
	// AcknowledgedBy identifies who acknowledged the alarm.
	AcknowledgedBy string `yaml:"acknowledged_by,omitempty" json:"acknowledged_by,omitempty"`
}

type configAlias Config

type configJSON struct {
	*configAlias

	CooldownSeconds *float64 `json:"cooldown_seconds,omitempty"`
}

// MarshalJSON writes the cooldown as fractional seconds.
//
//nolint:gocritic // Value receiver keeps Config values and pointers encoding alike.
func (c Config) MarshalJSON() ([]byte, error) {
	secs := c.Cooldown.Seconds()

	return json.Marshal(configJSON{configAlias: (*configAlias)(&c), CooldownSeconds: &secs})
}

// UnmarshalJSON reads cooldown_seconds and leaves Cooldown untouched when it is absent.
func (c *Config) UnmarshalJSON(data []byte) error {
	aux := configJSON{configAlias: (*configAlias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.CooldownSeconds != nil {
		c.Cooldown = time.Duration(math.Round(*aux.CooldownSeconds * float64(time.Second)))
	}

	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	cloned := *c

	return &cloned
}

// Validate checks the invariant fields of the configuration.
func (c *Config) Validate() error {
	if c == nil || c.ID <= 0 || c.ZoneID <= 0 || c.Cooldown < 0 {
		return ErrInvalidConfig
	}

	return nil
}

// Matches reports whether the reading breaches this alarm on the given zone.
func (c *Config) Matches(zoneID int64, temperature float64) bool {
	return c.Enabled && c.ZoneID == zoneID && c.Threshold <= temperature
}

// CoolingDown reports whether the alarm fired less than Cooldown before at.
func (c *Config) CoolingDown(at time.Time) bool {
	if c.Cooldown <= 0 || c.LastTriggered.IsZero() {
		return false
	}

	return at.Sub(c.LastTriggered) < c.Cooldown
}
