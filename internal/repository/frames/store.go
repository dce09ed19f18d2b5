package frames

import (
	"context"

	"github.com/oshokin/thermal-monitor/internal/domain/alarm"
	"github.com/oshokin/thermal-monitor/internal/domain/thermal"
)

// Sink persists a single frame in its own transaction.
type Sink interface {
	Write(ctx context.Context, record thermal.Record) error
}

// EventStore persists alarm events.
type EventStore interface {
	SaveEvent(ctx context.Context, event alarm.Event) error
}

// Store persists frames and alarm events.
type Store interface {
	Sink
	EventStore

	// ListByEvent returns the frames of a capture in capture order.
	ListByEvent(ctx context.Context, eventID string) ([]thermal.Record, error)
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
