// Package alarm evaluates zone temperatures against the configured alarms.
//
// The Evaluator keeps the alarm configurations cached in memory behind one
// lock and writes every change through to an alarmconfig.Repository before
// the cache is updated. Check yields at most one event per call and keeps a
// bounded log of recent events.
package alarm
