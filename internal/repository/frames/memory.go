package frames

import (
	"context"
	"slices"
	"sync"

	"github.com/oshokin/thermal-monitor/internal/domain/alarm"
	"github.com/oshokin/thermal-monitor/internal/domain/thermal"
)

// MemoryStore keeps frames and events in process memory.
type MemoryStore struct {
	// records holds persisted frames in write order.
	records []thermal.Record
	// events holds persisted alarm events in write order.
	events []alarm.Event
	// mu protects records and events.
	mu sync.RWMutex
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make([]thermal.Record, 0, 128),
	}
}

// Write appends a copy of the record.
func (m *MemoryStore) Write(_ context.Context, record thermal.Record) error {
	record.Payload = slices.Clone(record.Payload)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, record)

	return nil
}

// SaveEvent appends the event.
func (m *MemoryStore) SaveEvent(_ context.Context, event alarm.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, event)

	return nil
}

// ListByEvent returns the frames tagged with eventID in capture order.
func (m *MemoryStore) ListByEvent(_ context.Context, eventID string) ([]thermal.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []thermal.Record

	for _, r := range m.records {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}

	slices.SortStableFunc(out, func(a, b thermal.Record) int {
		return a.CapturedAt.Compare(b.CapturedAt)
	})

	return out, nil
}

// Records returns every persisted frame in write order.
func (m *MemoryStore) Records() []thermal.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.records)
}

// Events returns every persisted event in write order.
func (m *MemoryStore) Events() []alarm.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.events)
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error {
	return nil
}
