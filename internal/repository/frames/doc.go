// Package frames persists captured thermal frames and alarm events.
//
// Every frame write runs in its own transaction: either the frame lands or it is
// discarded, never half-written. PostgresStore targets a shared database; MemoryStore
// serves standalone runs and tests.
package frames
