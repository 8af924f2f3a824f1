// Package logging provides the minimal logging interface used across agentgroup
// and adapters for the structured loggers in common use.
//
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ZapAdapter wrapping a zap SugaredLogger
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", os.Stderr)
//	group := agentgroup.New(func(o *agentgroup.Options) { o.Logger = logger })
//
// Every component falls back to NoOpLogger when handed a nil Logger.
package logging
