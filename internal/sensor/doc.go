// Package sensor provides frame sources for the monitor: a Gaussian mock for
// development, an MQTT subscriber for frames published by a sensor bridge,
// and a retrying wrapper that bounds how long one read may keep failing.
package sensor
