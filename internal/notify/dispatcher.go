package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
	"github.com/oshokin/thermal-monitor/internal/logger"
	"github.com/oshokin/thermal-monitor/internal/metrics"
)

const (
	// DefaultQueueSize is used when NewDispatcher receives a non-positive size.
	DefaultQueueSize = 64
	// DefaultSendTimeout bounds a single channel delivery.
	DefaultSendTimeout = 10 * time.Second
)

// ErrQueueFull is returned by Notify when the event had to be dropped.
var ErrQueueFull = errors.New("notification queue full")

// Dispatcher fans events out to channels from a background loop.
type Dispatcher struct {
	// channels receive every event.
	channels []Channel
	// queue holds events waiting for delivery.
	queue chan domain.Event
	// timeout bounds each channel delivery.
	timeout time.Duration
}

// NewDispatcher creates a dispatcher with a bounded queue.
func NewDispatcher(queueSize int, timeout time.Duration, channels ...Channel) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}

	return &Dispatcher{
		channels: channels,
		queue:    make(chan domain.Event, queueSize),
		timeout:  timeout,
	}
}

// Channels returns the channel names in delivery order.
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		names = append(names, ch.Name())
	}

	return names
}

// Notify enqueues an event without blocking.
func (d *Dispatcher) Notify(ctx context.Context, event domain.Event) error {
	select {
	case d.queue <- event:
		return nil
	default:
		for _, ch := range d.channels {
			metrics.IncNotification(ch.Name(), metrics.ResultDropped)
		}

		logger.WarnKV(ctx, "Notification queue full, event dropped", "event_id", event.ID)

		return fmt.Errorf("%w: event %s", ErrQueueFull, event.ID)
	}
}

// Run delivers queued events until ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "notify")

	logger.InfoKV(ctx, "Notification dispatcher started", "channels", d.Channels())

	for {
		select {
		case <-ctx.Done():
			logger.InfoKV(ctx, "Notification dispatcher stopped", "pending", len(d.queue))

			return nil
		case event := <-d.queue:
			if err := d.Deliver(ctx, event); err != nil {
				logger.WarnKV(ctx, "Notification partially failed", "event_id", event.ID, "error", err)
			}
		}
	}
}

// Deliver sends one event to every channel and returns the combined failures.
func (d *Dispatcher) Deliver(ctx context.Context, event domain.Event) error {
	var errs error

	for _, ch := range d.channels {
		if err := d.send(ctx, ch, event); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}

	return errs
}

func (d *Dispatcher) send(ctx context.Context, ch Channel, event domain.Event) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := ch.Send(sendCtx, event); err != nil {
		metrics.IncNotification(ch.Name(), metrics.ResultError)
		logger.ErrorKV(ctx, "Notification failed", "channel", ch.Name(), "event_id", event.ID, "error", err)

		return err
	}

	metrics.IncNotification(ch.Name(), metrics.ResultSuccess)
	logger.DebugKV(ctx, "Notification sent", "channel", ch.Name(), "event_id", event.ID)

	return nil
}
