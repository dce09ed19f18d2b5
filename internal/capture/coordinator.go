package capture

import (
	"context"
	"sync"
	"time"

	"github.com/oshokin/thermal-monitor/internal/domain/thermal"
	"github.com/oshokin/thermal-monitor/internal/logger"
	"github.com/oshokin/thermal-monitor/internal/metrics"
)

// DefaultPostEventFrames is the post-event tail length used when none is configured.
const DefaultPostEventFrames = 20

// FrameSink persists one serialized frame per call inside its own transaction.
type FrameSink interface {
	Write(ctx context.Context, record thermal.Record) error
}

// Status is a point-in-time view of the coordinator.
type Status struct {
	// Active tells whether a post-event capture is in progress.
	Active bool
	// Remaining is the number of post-event frames still to persist.
	Remaining int
	// EventID is the id of the capture in progress.
	EventID string
	// Buffered is the current pre-event buffer size.
	Buffered int
}

// Coordinator turns a trigger into a bounded persistence sequence:
// the buffered pre-event window first, then postEventFrames frames one per RecordFrame.
type Coordinator struct {
	// buffer holds the pre-event history.
	buffer *FrameBuffer
	// sink receives every persisted frame.
	sink FrameSink
	// postEventFrames is the tail length armed by each trigger.
	postEventFrames int

	// mu guards active, remaining and eventID, and serializes buffer appends
	// with trigger snapshots so a frame is persisted exactly once.
	mu sync.Mutex
	// active is true while the post-event tail is being persisted.
	active bool
	// remaining counts the post-event frames left; positive only while active.
	remaining int
	// eventID tags the frames of the capture in progress.
	eventID string
}

// NewCoordinator creates an idle coordinator. postEventFrames < 1 falls back to DefaultPostEventFrames.
func NewCoordinator(buffer *FrameBuffer, sink FrameSink, postEventFrames int) *Coordinator {
	if postEventFrames < 1 {
		postEventFrames = DefaultPostEventFrames
	}

	return &Coordinator{
		buffer:          buffer,
		sink:            sink,
		postEventFrames: postEventFrames,
	}
}

// RecordFrame appends the frame to the pre-event buffer and, while a capture is active,
// persists it as the next post-event frame. When the tail is complete the buffer is
// cleared and the coordinator returns to idle.
//
// The append happens inside the coordinator's critical section: a concurrent
// TriggerEvent either sees the frame in its snapshot or runs before it was appended,
// in which case the frame is persisted here as a post-event frame.
func (c *Coordinator) RecordFrame(ctx context.Context, frame *thermal.Frame, ts time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buffer.Append(frame, ts)
	metrics.SetBufferSize(c.buffer.Len())

	if !c.active {
		return
	}

	c.persist(ctx, thermal.PhasePostEvent, thermal.Entry{Timestamp: ts, Frame: *frame})

	c.remaining--
	if c.remaining > 0 {
		return
	}

	logger.InfoKV(ctx, "Capture completed", "event_id", c.eventID)

	c.active = false
	c.remaining = 0
	c.eventID = ""
	c.buffer.Clear()

	metrics.SetCaptureActive(false)
	metrics.SetBufferSize(0)
}

// TriggerEvent starts a capture tagged with eventID. While a capture is already active
// the trigger is ignored and false is returned; the running window is neither
// restarted nor extended.
func (c *Coordinator) TriggerEvent(ctx context.Context, eventID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		logger.WarnKV(ctx, "Capture already active, ignoring trigger",
			"active_event_id", c.eventID,
			"ignored_event_id", eventID,
			"remaining", c.remaining,
		)
		metrics.IncCaptureTrigger(metrics.TriggerIgnored)

		return false
	}

	snapshot := c.buffer.Snapshot()
	for _, entry := range snapshot {
		c.persistEvent(ctx, eventID, thermal.PhasePreEvent, entry)
	}

	c.active = true
	c.remaining = c.postEventFrames
	c.eventID = eventID

	metrics.IncCaptureTrigger(metrics.TriggerStarted)
	metrics.SetCaptureActive(true)

	logger.InfoKV(ctx, "Capture triggered",
		"event_id", eventID,
		"pre_event_frames", len(snapshot),
		"post_event_frames", c.postEventFrames,
	)

	return true
}

// Status returns the current state.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Status{
		Active:    c.active,
		Remaining: c.remaining,
		EventID:   c.eventID,
		Buffered:  c.buffer.Len(),
	}
}

// BufferLen returns the pre-event buffer size.
func (c *Coordinator) BufferLen() int {
	return c.buffer.Len()
}

// persist writes a frame of the active capture. Caller holds mu.
func (c *Coordinator) persist(ctx context.Context, phase thermal.Phase, entry thermal.Entry) {
	c.persistEvent(ctx, c.eventID, phase, entry)
}

// persistEvent writes one frame. A failed write is logged and counted; the capture
// sequence continues regardless and the frame is not retried.
func (c *Coordinator) persistEvent(ctx context.Context, eventID string, phase thermal.Phase, entry thermal.Entry) {
	err := c.sink.Write(ctx, thermal.NewRecord(eventID, phase, entry))
	if err != nil {
		logger.ErrorKV(ctx, "Failed to persist frame",
			"event_id", eventID,
			"phase", phase,
			"captured_at", entry.Timestamp,
			"error", err,
		)
		metrics.IncFramePersisted(string(phase), metrics.ResultError)

		return
	}

	metrics.IncFramePersisted(string(phase), metrics.ResultSuccess)
	logger.DebugKV(ctx, "Frame persisted", "event_id", eventID, "phase", phase, "captured_at", entry.Timestamp)
}
