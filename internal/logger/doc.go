// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a sane console encoder,
//   - an optional rotating JSON file sink (lumberjack),
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// The capture pipeline, the alarm evaluator and the transports accept a context
// and extract the logger from it, so every log line carries its component name.
package logger
