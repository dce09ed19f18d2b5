// Package metrics registers the Prometheus collectors of the capture pipeline
// and exposes nil-safe helpers to update them.
package metrics
