// Package zone describes rectangular regions of the sensor grid and keeps the
// bounded set of zones the monitor watches.
package zone
