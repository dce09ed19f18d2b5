// Package health aggregates component checks into one report.
package health
