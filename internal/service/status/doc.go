// Package status implements the operator command that prints the monitor state.
//
// It connects to the thermal monitor over gRPC, renders capture, zone and
// alarm state as a table and optionally keeps polling until interrupted.
package status
