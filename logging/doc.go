// Package logging provides a minimal logging interface and adapters for mlfabric.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that runners and experimentation backends use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - FabricLogger adding run / component context and stage helpers
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	r, err := runner.New(model, split, evaluator, func(o *runner.Options) { o.Logger = logger })
//
// Arguments after the message are slog style key/value pairs.
package logging
