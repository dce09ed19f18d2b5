// Package common holds helpers shared by the operator commands.
//
// It provides a MonitorService client wrapper with timeouts and a helper that
// detects the current system actor (hostname/username) for acknowledgements.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
