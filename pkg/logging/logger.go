// Package logging configures the zerolog logger shared by the connector packages.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is a textual zerolog level.
type LogLevel string

const (
	// LevelDebug logs request and page traces and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs run summaries and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs item failures kept by continue-on-fail and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs fatal run errors only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level written.
	Level LogLevel

	// Pretty switches from JSON lines to zerolog's console writer.
	Pretty bool

	// Output defaults to os.Stderr when nil.
	Output io.Writer
}

// DefaultConfig returns JSON logging at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	// Set global log level
	zerolog.SetGlobalLevel(ParseLevel(string(cfg.Level)))

	// Configure output
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	// Create logger with timestamp
	logger := zerolog.New(output).With().Timestamp().Logger()

	// Set as global logger
	log.Logger = logger

	return logger
}

// ParseLevel maps a level name to a zerolog level. Unknown names fall back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger derives a logger from the global one tagged with a component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Level usage:
//
// Debug: page fetches (resource, continuation, entries), cache hits, request bodies omitted
// Info: server startup, credential checks, batch completion
// Warn: item failures captured under continue-on-fail, cache errors
// Error: aborted batches, upstream failures returned to the host
//
// Common fields:
//   - component: emitting package (mail-client, pagination, runner, server)
//   - endpoint: provider path label, e.g. /emails or /emails/{id}
//   - status: HTTP status code from the provider
//   - resource / operation: action being executed
//   - item_index: index of the input item
//   - execution_id: uuid of one runner invocation
