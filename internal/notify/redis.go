package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"

	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
)

// DefaultStreamMaxLen caps the stream length with approximate trimming.
const DefaultStreamMaxLen = 10000

// StreamAdder appends stream entries; *redis.Client implements it.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStream appends events to a Redis stream.
type RedisStream struct {
	// client is the Redis connection.
	client StreamAdder
	// stream is the stream key.
	stream string
}

// NewRedisStream creates a Redis stream channel.
func NewRedisStream(client StreamAdder, stream string) *RedisStream {
	return &RedisStream{
		client: client,
		stream: stream,
	}
}

// Name implements Channel.
func (r *RedisStream) Name() string {
	return "redis"
}

// Send implements Channel.
func (r *RedisStream) Send(ctx context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: DefaultStreamMaxLen,
		Approx: true,
		Values: map[string]any{
			"event_id":  event.ID,
			"alarm_id":  strconv.FormatInt(event.AlarmID, 10),
			"zone_id":   strconv.FormatInt(event.ZoneID, 10),
			"message":   Summary(event),
			"data":      string(data),
			"timestamp": strconv.FormatInt(event.Timestamp.Unix(), 10),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", r.stream, err)
	}

	return nil
}
