// Package httpapi serves the read-only HTTP surface of the monitor: health,
// the latest frame, zone averages, recent alarm events and Prometheus metrics.
package httpapi
