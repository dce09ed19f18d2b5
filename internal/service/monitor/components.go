package monitor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/multierr"

	"github.com/oshokin/thermal-monitor/internal/config"
	"github.com/oshokin/thermal-monitor/internal/logger"
	"github.com/oshokin/thermal-monitor/internal/notify"
	"github.com/oshokin/thermal-monitor/internal/repository/alarmconfig"
	"github.com/oshokin/thermal-monitor/internal/repository/frames"
	"github.com/oshokin/thermal-monitor/internal/sensor"
	"github.com/oshokin/thermal-monitor/internal/transport/mqtt"
)

// components holds the external connections opened for one run.
type components struct {
	// db is the Postgres pool; nil when no component needs it.
	db *sql.DB
	// mqtt is the broker client; nil when no component needs it.
	mqtt *mqtt.Client
	// redis is the Redis client; nil when no component needs it.
	redis *redis.Client
	// store receives frames and events.
	store frames.Store
	// alarms is the alarm configuration store.
	alarms alarmconfig.Repository
	// reader is the retrying frame source.
	reader sensor.Reader
	// dispatcher delivers notifications.
	dispatcher *notify.Dispatcher
}

// openComponents connects every backend the settings ask for. On error the
// connections opened so far are closed.
func openComponents(ctx context.Context, settings *config.Config) (_ *components, err error) {
	c := new(components)

	defer func() {
		if err != nil {
			err = multierr.Append(err, c.close())
		}
	}()

	if err = c.openStorage(ctx, settings); err != nil {
		return nil, err
	}

	needsMQTT := settings.Sensor.Source == config.SensorMQTT || settings.Notifications.MQTTTopic != ""
	if needsMQTT {
		c.mqtt, err = mqtt.Connect(ctx, mqtt.Options{
			Broker:         settings.MQTT.Broker,
			ClientID:       settings.MQTT.ClientID,
			Username:       settings.MQTT.Username,
			Password:       settings.MQTT.Password,
			ConnectTimeout: settings.Timeout,
		})
		if err != nil {
			return nil, err
		}
	}

	if settings.Notifications.RedisStream != "" {
		c.redis = redis.NewClient(&redis.Options{
			Addr:     settings.Redis.Addr,
			Password: settings.Redis.Password,
			DB:       settings.Redis.DB,
		})

		if err = c.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis %s: %w", settings.Redis.Addr, err)
		}
	}

	if err = c.openSensor(ctx, settings); err != nil {
		return nil, err
	}

	c.dispatcher = notify.NewDispatcher(settings.Notifications.QueueSize, settings.Timeout, c.channels(settings)...)

	return c, nil
}

func (c *components) openStorage(ctx context.Context, settings *config.Config) error {
	usesPostgres := settings.Storage.Driver == config.StoragePostgres ||
		settings.Alarms.Store == config.StorePostgres

	if usesPostgres {
		db, err := frames.Open(ctx, settings.Storage.DSN, frames.PoolOptions{
			MaxOpenConns:    settings.Storage.MaxOpenConns,
			MaxIdleConns:    settings.Storage.MaxIdleConns,
			ConnMaxLifetime: settings.Storage.ConnMaxLifetime,
		})
		if err != nil {
			return err
		}

		c.db = db

		if settings.Storage.Migrate {
			if err = frames.NewPostgresStore(db).Migrate(ctx); err != nil {
				return err
			}
		}
	}

	if settings.Storage.Driver == config.StoragePostgres {
		c.store = frames.NewPostgresStore(c.db)
	} else {
		c.store = frames.NewMemoryStore()
	}

	if settings.Alarms.Store == config.StorePostgres {
		c.alarms = alarmconfig.NewPostgresRepository(c.db)
	} else {
		c.alarms = alarmconfig.NewFileRepository(settings.Alarms.File)
	}

	logger.InfoKV(ctx, "Storage ready",
		"frames", settings.Storage.Driver, "alarms", settings.Alarms.Store, "migrate", settings.Storage.Migrate)

	return nil
}

func (c *components) openSensor(ctx context.Context, settings *config.Config) error {
	var base sensor.Reader

	switch settings.Sensor.Source {
	case config.SensorMQTT:
		r, err := sensor.NewMQTTReader(ctx, c.mqtt, settings.Sensor.Topic, settings.MQTT.QoS, settings.Sensor.ReadTimeout)
		if err != nil {
			return err
		}

		base = r
	default:
		base = sensor.NewMockReader(settings.Sensor.BaseTemperature, settings.Sensor.Noise, uint64(time.Now().UnixNano()))
	}

	c.reader = sensor.NewRetryReader(base, settings.Sensor.MaxRetries, settings.Sensor.RetryBackoff)

	logger.InfoKV(ctx, "Sensor ready", "source", settings.Sensor.Source, "max_retries", settings.Sensor.MaxRetries)

	return nil
}

func (c *components) channels(settings *config.Config) []notify.Channel {
	n := settings.Notifications
	channels := []notify.Channel{notify.LogChannel{}}

	if n.WebhookURL != "" {
		channels = append(channels, notify.NewWebhook(n.WebhookURL, settings.Timeout))
	}

	if n.Email.SMTPAddr != "" {
		channels = append(channels, notify.NewEmail(notify.EmailOptions{
			Addr:     n.Email.SMTPAddr,
			From:     n.Email.From,
			To:       n.Email.To,
			Username: n.Email.Username,
			Password: n.Email.Password,
		}))
	}

	if n.MQTTTopic != "" && c.mqtt != nil {
		channels = append(channels, notify.NewMQTTPublisher(c.mqtt, n.MQTTTopic, settings.MQTT.QoS))
	}

	if n.RedisStream != "" && c.redis != nil {
		channels = append(channels, notify.NewRedisStream(c.redis, n.RedisStream))
	}

	return channels
}

// close releases every connection and combines the failures.
func (c *components) close() error {
	var errs error

	if c.mqtt != nil {
		c.mqtt.Disconnect()
	}

	if c.redis != nil {
		errs = multierr.Append(errs, c.redis.Close())
	}

	if c.db != nil {
		errs = multierr.Append(errs, c.db.Close())
	}

	return errs
}
