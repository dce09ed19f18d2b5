// Package config defines the thermal monitor settings and provides helpers
// to load, validate and save them in YAML format.
//
// Validate fills unset values with defaults, so a minimal file runs the
// monitor with a mock sensor, an in-memory frame store and file-backed alarms.
package config
