package capture

import (
	"sync"
	"time"

	"github.com/oshokin/thermal-monitor/internal/domain/thermal"
)

// FrameBuffer is a fixed-capacity ring of the most recent frames.
// The oldest entry is evicted silently when a new one arrives at capacity.
type FrameBuffer struct {
	// entries is the ring storage, allocated once at construction.
	entries []thermal.Entry
	// head is the index of the oldest entry.
	head int
	// size is the number of valid entries.
	size int
	// mu guards every field above; snapshots must be consistent, not only race-free.
	mu sync.Mutex
}

// NewFrameBuffer creates a buffer holding at most capacity entries (minimum 1).
func NewFrameBuffer(capacity int) *FrameBuffer {
	if capacity < 1 {
		capacity = 1
	}

	return &FrameBuffer{
		entries: make([]thermal.Entry, capacity),
	}
}

// Append stores a copy of frame with its timestamp, evicting the oldest entry when full.
func (b *FrameBuffer) Append(frame *thermal.Frame, ts time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.entries)
	tail := (b.head + b.size) % capacity

	b.entries[tail] = thermal.Entry{Timestamp: ts, Frame: *frame}

	if b.size == capacity {
		b.head = (b.head + 1) % capacity
		return
	}

	b.size++
}

// Snapshot returns the held entries oldest first. The result shares no memory with the buffer.
func (b *FrameBuffer) Snapshot() []thermal.Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]thermal.Entry, b.size)
	for i := range b.size {
		out[i] = b.entries[(b.head+i)%len(b.entries)]
	}

	return out
}

// Clear drops every entry.
func (b *FrameBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	clear(b.entries)
	b.head = 0
	b.size = 0
}

// Len returns the number of held entries.
func (b *FrameBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.size
}

// Capacity returns the fixed capacity.
func (b *FrameBuffer) Capacity() int {
	return len(b.entries)
}
