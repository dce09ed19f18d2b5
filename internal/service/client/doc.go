// Package client implements the operator commands that change monitor state.
//
// It acknowledges alarms and triggers manual captures over gRPC, retrying
// transient failures until the call succeeds or the context is canceled.
package client
