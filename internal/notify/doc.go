// Package notify delivers alarm events to external channels.
//
// A Dispatcher decouples delivery from frame processing: Notify only
// enqueues, and Run hands every queued event to each channel independently.
// A failing channel is logged and counted; it never blocks the other
// channels or the caller.
package notify
