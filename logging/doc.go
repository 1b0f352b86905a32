// Package logging provides the minimal logging interface used across tutormesh
// and a slog backed implementation.
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelDebug, Format: "text"})
//	tutor, err := tutormesh.New(cfg, tutormesh.WithLogger(logger))
//
// Messages are dotted event names ("supervisor.step.complete") followed by
// key/value pairs.
package logging
