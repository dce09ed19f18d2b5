package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/thermal-monitor/internal/domain/thermal"
	"github.com/oshokin/thermal-monitor/internal/logger"
	"github.com/oshokin/thermal-monitor/internal/metrics"
)

// RetryReader retries a failing Reader with a linearly growing backoff.
type RetryReader struct {
	// next is the wrapped reader.
	next Reader
	// maxRetries is the number of retries after the first attempt.
	maxRetries int
	// backoff is multiplied by the attempt number between attempts.
	backoff time.Duration
}

// NewRetryReader wraps next. A negative maxRetries is treated as zero.
func NewRetryReader(next Reader, maxRetries int, backoff time.Duration) *RetryReader {
	return &RetryReader{
		next:       next,
		maxRetries: max(maxRetries, 0),
		backoff:    backoff,
	}
}

// ReadFrame implements Reader. It returns ErrReadFailed wrapping the last
// error once every attempt failed, or the context error when canceled while waiting.
func (r *RetryReader) ReadFrame(ctx context.Context) (thermal.Frame, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxRetries+1; attempt++ {
		frame, err := r.next.ReadFrame(ctx)
		if err == nil {
			return frame, nil
		}

		lastErr = err

		metrics.IncSensorError()
		logger.WarnKV(ctx, "Frame read attempt failed", "attempt", attempt, "error", err)

		if attempt > r.maxRetries {
			break
		}

		timer := time.NewTimer(r.backoff * time.Duration(attempt))

		select {
		case <-ctx.Done():
			timer.Stop()

			return thermal.Frame{}, ctx.Err()
		case <-timer.C:
		}
	}

	return thermal.Frame{}, fmt.Errorf("%w after %d attempts: %w", ErrReadFailed, r.maxRetries+1, lastErr)
}
