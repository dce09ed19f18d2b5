// Package monitor runs the thermal capture pipeline.
//
// Pipeline reads frames from a sensor, feeds the event coordinator, evaluates
// zone averages against the alarms and fans alarm events out to the event
// store and the notification dispatcher. Run wires every component from the
// configuration and serves the gRPC and HTTP control surfaces next to it.
package monitor
