// Package capture implements the event-triggered frame capture core.
//
// FrameBuffer keeps the most recent frames in a fixed ring. Coordinator consumes
// every incoming frame and, once triggered, persists the buffered pre-event window
// followed by a fixed number of post-event frames, then returns to idle.
package capture
