// Package alarmconfig implements persistence for alarm configurations.
//
// FileRepository stores the configuration set as YAML on disk; PostgresRepository
// keeps it in the alarms table. Both satisfy the Repository interface the alarm
// evaluator depends on.
package alarmconfig
