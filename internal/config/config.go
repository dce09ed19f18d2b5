package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/thermal-monitor/internal/domain/zone"
	"github.com/oshokin/thermal-monitor/internal/logger"
)

// Config holds every setting of the thermal monitor.
type Config struct {
	// Log configures the process logger.
	Log LogConfig `yaml:"log"`
	// Sensor configures the frame source.
	Sensor SensorConfig `yaml:"sensor"`
	// Capture configures the frame buffer and the post-event tail.
	Capture CaptureConfig `yaml:"capture"`
	// Alarms configures alarm evaluation and the alarm configuration store.
	Alarms AlarmsConfig `yaml:"alarms"`
	// Zones lists the monitored regions of the sensor grid.
	Zones []zone.Zone `yaml:"zones"`
	// Storage configures where captured frames and events are written.
	Storage StorageConfig `yaml:"storage"`
	// MQTT holds the broker connection shared by the sensor and the notifier.
	MQTT MQTTConfig `yaml:"mqtt"`
	// Redis holds the connection used by the Redis stream notifier.
	Redis RedisConfig `yaml:"redis"`
	// Notifications lists the enabled alarm notification channels.
	Notifications NotificationsConfig `yaml:"notifications"`
	// Server holds the listen addresses of the control surfaces.
	Server ServerConfig `yaml:"server"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level"`
	// File is an optional path of a rotating JSON log file.
	File string `yaml:"file"`
	// MaxSizeMB is the rotation size of the log file.
	MaxSizeMB int `yaml:"max_size_mb"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `yaml:"max_backups"`
	// MaxAgeDays is the retention of rotated files.
	MaxAgeDays int `yaml:"max_age_days"`
	// Components overrides Level per component: pipeline, notify, grpc, http.
	Components map[string]string `yaml:"components,omitempty"`
}

// SensorConfig configures the frame source.
type SensorConfig struct {
	// Source selects the reader: "mock" or "mqtt".
	Source string `yaml:"source"`
	// RefreshInterval is the time between two frame reads.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	// MaxRetries is the number of read attempts per cycle.
	MaxRetries int `yaml:"max_retries"`
	// RetryBackoff is multiplied by the attempt number between retries.
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	// ReadTimeout bounds how long one read waits for a frame.
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// BaseTemperature is the mean reading of the mock sensor.
	BaseTemperature float64 `yaml:"base_temperature"`
	// Noise is the standard deviation of the mock sensor readings.
	Noise float64 `yaml:"noise"`
	// Topic is the MQTT topic carrying raw frames.
	Topic string `yaml:"topic"`
}

// CaptureConfig configures event capture.
type CaptureConfig struct {
	// BufferCapacity is the number of frames kept before an event.
	BufferCapacity int `yaml:"buffer_capacity"`
	// PostEventFrames is the number of frames persisted after an event.
	PostEventFrames int `yaml:"post_event_frames"`
}

// AlarmsConfig configures alarm evaluation.
type AlarmsConfig struct {
	// Store selects the configuration store: "file" or "postgres".
	Store string `yaml:"store"`
	// File is the YAML file used by the file store.
	File string `yaml:"file"`
	// EnforceCooldown suppresses repeated events inside an alarm's cooldown window.
	EnforceCooldown *bool `yaml:"enforce_cooldown"`
	// EventLogSize bounds the in-process event log.
	EventLogSize int `yaml:"event_log_size"`
	// Definitions are alarms created at startup when absent from the store.
	Definitions []AlarmDefinition `yaml:"definitions"`
}

// AlarmDefinition is a startup alarm.
type AlarmDefinition struct {
	// ID uniquely identifies the alarm.
	ID int64 `yaml:"id"`
	// ZoneID references a configured zone.
	ZoneID int64 `yaml:"zone_id"`
	// Threshold is the trigger temperature in °C.
	Threshold float64 `yaml:"threshold"`
	// Enabled defaults to true when omitted.
	Enabled *bool `yaml:"enabled"`
	// Cooldown defaults to ten minutes when omitted.
	Cooldown time.Duration `yaml:"cooldown"`
}

// StorageConfig configures frame and event persistence.
type StorageConfig struct {
	// Driver selects the frame store: "memory" or "postgres".
	Driver string `yaml:"driver"`
	// DSN is the Postgres connection string.
	DSN string `yaml:"dsn"`
	// MaxOpenConns caps open connections.
	MaxOpenConns int `yaml:"max_open_conns"`
	// MaxIdleConns caps idle connections.
	MaxIdleConns int `yaml:"max_idle_conns"`
	// ConnMaxLifetime recycles old connections.
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	// Migrate creates the schema at startup.
	Migrate bool `yaml:"migrate"`
}

// MQTTConfig holds broker settings.
type MQTTConfig struct {
	// Broker is the broker URL, for example tcp://localhost:1883.
	Broker string `yaml:"broker"`
	// ClientID identifies this process to the broker.
	ClientID string `yaml:"client_id"`
	// Username is optional.
	Username string `yaml:"username"`
	// Password is optional.
	Password string `yaml:"password"`
	// QoS is the quality of service for subscriptions and publishes.
	QoS byte `yaml:"qos"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	// Addr is host:port of the Redis server.
	Addr string `yaml:"addr"`
	// Password is optional.
	Password string `yaml:"password"`
	// DB is the database number.
	DB int `yaml:"db"`
}

// NotificationsConfig lists alarm notification channels; empty values disable a channel.
type NotificationsConfig struct {
	// QueueSize bounds the number of pending notifications.
	QueueSize int `yaml:"queue_size"`
	// WebhookURL receives a JSON POST per event.
	WebhookURL string `yaml:"webhook_url"`
	// Email configures SMTP delivery.
	Email EmailConfig `yaml:"email"`
	// MQTTTopic receives a JSON message per event.
	MQTTTopic string `yaml:"mqtt_topic"`
	// RedisStream receives an XADD entry per event.
	RedisStream string `yaml:"redis_stream"`
}

// EmailConfig configures SMTP delivery.
type EmailConfig struct {
	// SMTPAddr is host:port of the SMTP server.
	SMTPAddr string `yaml:"smtp_addr"`
	// From is the sender address.
	From string `yaml:"from"`
	// To lists the recipients.
	To []string `yaml:"to"`
	// Username enables PLAIN authentication when set.
	Username string `yaml:"username"`
	// Password is used with Username.
	Password string `yaml:"password"`
}

// ServerConfig holds listen addresses.
type ServerConfig struct {
	// GRPCAddress is the control API listen address.
	GRPCAddress string `yaml:"grpc_address"`
	// HTTPAddress is the HTTP API listen address; empty disables the HTTP surface.
	HTTPAddress string `yaml:"http_address"`
}

const (
	// DefaultConfigFilename is the default filename for monitor settings.
	DefaultConfigFilename = "thermal-monitor.yaml"

	// DefaultAlarmsFilename is the default file of the alarm configuration store.
	DefaultAlarmsFilename = "thermal-alarms.yaml"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultGRPCAddress is the default control API address.
	DefaultGRPCAddress = "127.0.0.1:50051"

	// DefaultRefreshInterval is the default time between frame reads.
	DefaultRefreshInterval = time.Second

	// DefaultMaxRetries is the default number of read attempts per cycle.
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the default base delay between read attempts.
	DefaultRetryBackoff = 500 * time.Millisecond

	// DefaultBufferCapacity is the default pre-event window.
	DefaultBufferCapacity = 20

	// DefaultPostEventFrames is the default post-event tail.
	DefaultPostEventFrames = 20

	// DefaultEventLogSize is the default bound of the in-process event log.
	DefaultEventLogSize = 1000

	// DefaultQueueSize is the default notification queue size.
	DefaultQueueSize = 64

	// DefaultBaseTemperature is the default mean of the mock sensor.
	DefaultBaseTemperature = 22.0

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

// Supported selector values.
const (
	SensorMock      = "mock"
	SensorMQTT      = "mqtt"
	StoreFile       = "file"
	StorePostgres   = "postgres"
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when the gRPC address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// ErrInvalidSetting is returned for values outside their allowed set.
	ErrInvalidSetting = errors.New("invalid setting")
	// ErrMissingSetting is returned when a selected feature lacks a required value.
	ErrMissingSetting = errors.New("missing setting")
)

// Default returns a configuration with every default applied: mock sensor,
// in-memory frame store and file-backed alarms.
func Default() *Config {
	cfg := new(Config)
	_ = Validate(cfg)

	return cfg
}

// CooldownEnforced reports whether alarm cooldown windows are honored.
func (a *AlarmsConfig) CooldownEnforced() bool {
	return a.EnforceCooldown == nil || *a.EnforceCooldown
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions: the file may hold credentials.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate applies defaults and checks the provided settings.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	applyDefaults(settings)

	if settings.Server.GRPCAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.Server.GRPCAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if _, err := logger.ParseComponentLevels(settings.Log.Components); err != nil {
		return fmt.Errorf("%w: log.components: %w", ErrInvalidSetting, err)
	}

	if err := validateSensor(settings); err != nil {
		return err
	}

	if err := validateStorage(settings); err != nil {
		return err
	}

	if err := validateZones(settings.Zones); err != nil {
		return err
	}

	return validateNotifications(settings)
}

func applyDefaults(settings *Config) {
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.Log.Level == "" {
		settings.Log.Level = "info"
	}

	if settings.Server.GRPCAddress == "" {
		settings.Server.GRPCAddress = DefaultGRPCAddress
	}

	sensor := &settings.Sensor
	if sensor.Source == "" {
		sensor.Source = SensorMock
	}

	if sensor.RefreshInterval <= 0 {
		sensor.RefreshInterval = DefaultRefreshInterval
	}

	if sensor.MaxRetries <= 0 {
		sensor.MaxRetries = DefaultMaxRetries
	}

	if sensor.RetryBackoff <= 0 {
		sensor.RetryBackoff = DefaultRetryBackoff
	}

	if sensor.ReadTimeout <= 0 {
		sensor.ReadTimeout = settings.Timeout
	}

	if sensor.BaseTemperature == 0 {
		sensor.BaseTemperature = DefaultBaseTemperature
	}

	if settings.Capture.BufferCapacity <= 0 {
		settings.Capture.BufferCapacity = DefaultBufferCapacity
	}

	if settings.Capture.PostEventFrames <= 0 {
		settings.Capture.PostEventFrames = DefaultPostEventFrames
	}

	if settings.Alarms.Store == "" {
		settings.Alarms.Store = StoreFile
	}

	if settings.Alarms.File == "" {
		settings.Alarms.File = DefaultAlarmsFilename
	}

	if settings.Alarms.EventLogSize <= 0 {
		settings.Alarms.EventLogSize = DefaultEventLogSize
	}

	if settings.Storage.Driver == "" {
		settings.Storage.Driver = StorageMemory
	}

	if settings.Notifications.QueueSize <= 0 {
		settings.Notifications.QueueSize = DefaultQueueSize
	}

	if settings.MQTT.ClientID == "" {
		settings.MQTT.ClientID = "thermal-monitor"
	}
}

func validateSensor(settings *Config) error {
	switch settings.Sensor.Source {
	case SensorMock:
		return nil
	case SensorMQTT:
		if settings.MQTT.Broker == "" {
			return fmt.Errorf("%w: mqtt.broker is required for the mqtt sensor", ErrMissingSetting)
		}

		if settings.Sensor.Topic == "" {
			return fmt.Errorf("%w: sensor.topic is required for the mqtt sensor", ErrMissingSetting)
		}

		return nil
	default:
		return fmt.Errorf("%w: sensor.source %q", ErrInvalidSetting, settings.Sensor.Source)
	}
}

func validateStorage(settings *Config) error {
	switch settings.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("%w: storage.driver %q", ErrInvalidSetting, settings.Storage.Driver)
	}

	switch settings.Alarms.Store {
	case StoreFile, StorePostgres:
	default:
		return fmt.Errorf("%w: alarms.store %q", ErrInvalidSetting, settings.Alarms.Store)
	}

	needsDSN := settings.Storage.Driver == StoragePostgres || settings.Alarms.Store == StorePostgres
	if needsDSN && settings.Storage.DSN == "" {
		return fmt.Errorf("%w: storage.dsn is required for postgres", ErrMissingSetting)
	}

	return nil
}

func validateZones(zones []zone.Zone) error {
	if len(zones) > zone.MaxZones {
		return fmt.Errorf("%w: %d zones configured", zone.ErrZoneLimit, len(zones))
	}

	for i := range zones {
		if err := zones[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

func validateNotifications(settings *Config) error {
	n := &settings.Notifications

	if n.WebhookURL != "" {
		if _, err := url.ParseRequestURI(n.WebhookURL); err != nil {
			return fmt.Errorf("invalid webhook URI: %w", err)
		}
	}

	if n.Email.SMTPAddr != "" && (n.Email.From == "" || len(n.Email.To) == 0) {
		return fmt.Errorf("%w: email needs from and to", ErrMissingSetting)
	}

	if n.MQTTTopic != "" && settings.MQTT.Broker == "" {
		return fmt.Errorf("%w: mqtt.broker is required for mqtt notifications", ErrMissingSetting)
	}

	if n.RedisStream != "" && settings.Redis.Addr == "" {
		return fmt.Errorf("%w: redis.addr is required for redis notifications", ErrMissingSetting)
	}

	return nil
}
