package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/thermal-monitor/internal/domain/thermal"
)

var errTestWrite = errors.New("test write error")

// recordingSink is an in-memory FrameSink that can be told to fail specific writes.
type recordingSink struct {
	// records holds every successful write in call order.
	records []thermal.Record
	// attempts counts every Write call, failed or not.
	attempts int
	// failOn returns true for writes that must fail.
	failOn func(attempt int) bool
	// mu protects the fields above.
	mu sync.Mutex
}

// Write stores the record unless failOn rejects the attempt.
func (s *recordingSink) Write(_ context.Context, record thermal.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts++
	if s.failOn != nil && s.failOn(s.attempts) {
		return errTestWrite
	}

	s.records = append(s.records, record)

	return nil
}

// snapshot returns a copy of the stored records.
func (s *recordingSink) snapshot() []thermal.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]thermal.Record(nil), s.records...)
}

// record feeds a frame filled with value at the i-th timestamp.
func record(ctx context.Context, c *Coordinator, value float32, i int) {
	f := thermal.Fill(value)
	c.RecordFrame(ctx, &f, at(i))
}

// TestCoordinator_EndToEnd follows the canonical scenario: two buffered frames, trigger, two post frames.
func TestCoordinator_EndToEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := new(recordingSink)
	buffer := NewFrameBuffer(2)
	c := NewCoordinator(buffer, sink, 2)

	f1, f2 := thermal.Fill(1), thermal.Fill(2)
	buffer.Append(&f1, at(0))
	buffer.Append(&f2, at(1))

	require.True(t, c.TriggerEvent(ctx, "evt-1"))
	require.Len(t, sink.snapshot(), 2)

	record(ctx, c, 3, 2)
	record(ctx, c, 4, 3)

	records := sink.snapshot()
	require.Len(t, records, 4)

	status := c.Status()
	require.False(t, status.Active)
	require.Zero(t, status.Remaining)
	require.Empty(t, status.EventID)
	require.Zero(t, buffer.Len())

	wantPhases := []thermal.Phase{thermal.PhasePreEvent, thermal.PhasePreEvent, thermal.PhasePostEvent, thermal.PhasePostEvent}
	for i, rec := range records {
		require.Equal(t, at(i), rec.CapturedAt, "frames must be persisted in capture order")
		require.Equal(t, wantPhases[i], rec.Phase)
		require.Equal(t, "evt-1", rec.EventID)
		require.Equal(t, thermal.FrameByteLength, rec.ByteLength)

		decoded, err := thermal.UnmarshalFrame(rec.Payload)
		require.NoError(t, err)
		require.InDelta(t, float64(i+1), float64(decoded[0]), 1e-9)
	}
}

// TestCoordinator_IdleFramesAreOnlyBuffered ensures nothing is persisted without a trigger.
func TestCoordinator_IdleFramesAreOnlyBuffered(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := new(recordingSink)
	c := NewCoordinator(NewFrameBuffer(3), sink, 2)

	for i := range 5 {
		record(ctx, c, float32(i), i)
	}

	require.Empty(t, sink.snapshot())
	require.Equal(t, 3, c.BufferLen())
	require.False(t, c.Status().Active)
}

// TestCoordinator_TriggerIsIgnoredWhileActive verifies that a second trigger neither restarts nor extends the window.
func TestCoordinator_TriggerIsIgnoredWhileActive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := new(recordingSink)
	c := NewCoordinator(NewFrameBuffer(4), sink, 3)

	record(ctx, c, 1, 0)

	require.True(t, c.TriggerEvent(ctx, "evt-1"))
	record(ctx, c, 2, 1)

	before := c.Status()
	require.True(t, before.Active)
	require.Equal(t, 2, before.Remaining)

	require.False(t, c.TriggerEvent(ctx, "evt-2"))

	after := c.Status()
	require.Equal(t, before, after)
	require.Len(t, sink.snapshot(), 2, "ignored trigger must not flush the buffer again")

	for _, rec := range sink.snapshot() {
		require.Equal(t, "evt-1", rec.EventID)
	}
}

// TestCoordinator_PostEventClosure returns to idle after exactly postEventFrames frames.
func TestCoordinator_PostEventClosure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := new(recordingSink)
	c := NewCoordinator(NewFrameBuffer(5), sink, 2)

	require.True(t, c.TriggerEvent(ctx, "evt-1"))
	require.Empty(t, sink.snapshot())

	record(ctx, c, 1, 0)
	require.True(t, c.Status().Active)

	record(ctx, c, 2, 1)
	require.False(t, c.Status().Active)
	require.Zero(t, c.BufferLen())

	record(ctx, c, 3, 2)
	require.Len(t, sink.snapshot(), 2, "frames after closure are only buffered")
	require.Equal(t, 1, c.BufferLen())

	require.True(t, c.TriggerEvent(ctx, "evt-2"), "a new event may start once idle")
	require.Len(t, sink.snapshot(), 3)
}

// TestCoordinator_PersistenceFailuresDoNotAbort keeps going when individual writes fail.
func TestCoordinator_PersistenceFailuresDoNotAbort(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := &recordingSink{
		failOn: func(attempt int) bool { return attempt%2 == 0 },
	}
	c := NewCoordinator(NewFrameBuffer(3), sink, 3)

	for i := range 3 {
		record(ctx, c, float32(i), i)
	}

	require.True(t, c.TriggerEvent(ctx, "evt-1"))

	for i := 3; i < 6; i++ {
		record(ctx, c, float32(i), i)
	}

	require.Equal(t, 6, sink.attempts)
	require.Len(t, sink.snapshot(), 3)
	require.False(t, c.Status().Active, "counters advance even when writes fail")
	require.Zero(t, c.BufferLen())
}

// TestCoordinator_DefaultPostEventFrames applies the default for non-positive values.
func TestCoordinator_DefaultPostEventFrames(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(NewFrameBuffer(1), new(recordingSink), 0)
	require.True(t, c.TriggerEvent(context.Background(), "evt"))
	require.Equal(t, DefaultPostEventFrames, c.Status().Remaining)
}

// TestCoordinator_ConcurrentRecordAndTrigger submits N frames concurrently with one trigger
// and expects every frame persisted exactly once.
func TestCoordinator_ConcurrentRecordAndTrigger(t *testing.T) {
	t.Parallel()

	const frames = 64

	for round := range 20 {
		ctx := context.Background()
		sink := new(recordingSink)
		// Capacity and tail cover every frame, so none may be evicted or left out.
		c := NewCoordinator(NewFrameBuffer(frames), sink, frames+1)

		start := make(chan struct{})

		var wg sync.WaitGroup
		for i := range frames {
			wg.Add(1)

			go func() {
				defer wg.Done()
				<-start
				record(ctx, c, float32(i), i)
			}()
		}

		wg.Add(1)

		go func() {
			defer wg.Done()
			<-start
			c.TriggerEvent(ctx, "evt")
		}()

		close(start)
		wg.Wait()

		seen := make(map[time.Time]int, frames)
		for _, rec := range sink.snapshot() {
			seen[rec.CapturedAt]++
		}

		require.Len(t, seen, frames, "round %d: every frame must be persisted", round)

		for ts, n := range seen {
			require.Equal(t, 1, n, "round %d: frame %s persisted %d times", round, ts, n)
		}
	}
}
