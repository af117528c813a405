// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and a per-logger level override,
//   - convenience functions (InfoKV, ErrorKV, etc.).
//
// The server, the monitor loop and the transports accept a context and
// extract the logger from it, so every alert is logged with its scope.
package logger
