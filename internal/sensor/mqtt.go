package sensor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/thermal-monitor/internal/domain/thermal"
	"github.com/oshokin/thermal-monitor/internal/logger"
	"github.com/oshokin/thermal-monitor/internal/metrics"
	"github.com/oshokin/thermal-monitor/internal/transport/mqtt"
)

// Subscriber subscribes to MQTT topics; *mqtt.Client implements it.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, qos byte, handler mqtt.MessageHandler) error
}

// MQTTReader reads packed frames published on a topic. Only the newest frame
// is kept: a slow reader skips frames instead of queueing them.
type MQTTReader struct {
	// timeout bounds how long ReadFrame waits for a new frame.
	timeout time.Duration
	// latest is the newest decoded frame.
	latest thermal.Frame
	// seq counts received frames.
	seq uint64
	// consumed is the seq returned by the last ReadFrame.
	consumed uint64
	// arrived is closed and replaced whenever a frame is received.
	arrived chan struct{}
	// mu protects the fields above.
	mu sync.Mutex
}

// NewMQTTReader subscribes to topic and returns a reader fed by it.
func NewMQTTReader(
	ctx context.Context,
	sub Subscriber,
	topic string,
	qos byte,
	timeout time.Duration,
) (*MQTTReader, error) {
	r := &MQTTReader{
		timeout: timeout,
		arrived: make(chan struct{}),
	}

	handlerCtx := logger.WithKV(ctx, "topic", topic)

	if err := sub.Subscribe(ctx, topic, qos, func(_ string, payload []byte) {
		r.handle(handlerCtx, payload)
	}); err != nil {
		return nil, fmt.Errorf("subscribe frames: %w", err)
	}

	return r, nil
}

// ReadFrame returns a frame not returned before, waiting up to the read timeout.
func (r *MQTTReader) ReadFrame(ctx context.Context) (thermal.Frame, error) {
	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	for {
		r.mu.Lock()
		if r.seq > r.consumed {
			r.consumed = r.seq
			frame := r.latest
			r.mu.Unlock()

			return frame, nil
		}

		arrived := r.arrived
		r.mu.Unlock()

		select {
		case <-arrived:
		case <-timer.C:
			return thermal.Frame{}, fmt.Errorf("%w within %s", ErrNoFrame, r.timeout)
		case <-ctx.Done():
			return thermal.Frame{}, ctx.Err()
		}
	}
}

func (r *MQTTReader) handle(ctx context.Context, payload []byte) {
	frame, err := thermal.UnmarshalFrame(payload)
	if err != nil {
		metrics.IncSensorError()
		logger.WarnKV(ctx, "Discarding malformed frame", "bytes", len(payload), "error", err)

		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.latest = frame
	r.seq++

	close(r.arrived)
	r.arrived = make(chan struct{})
}
