// Package monitor defines the read models exposed by the control surfaces.
package monitor
