// Package logging provides structured logging utilities using the standard library's log/slog package.
package logging

import (
	"log/slog"
	"os"
)

// NewLogger creates a new structured logger with JSON output.
// The log level can be controlled via the LOG_LEVEL environment variable.
// Supported levels: debug, info
// Default level: info
func NewLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
		// Add source code location for error and warn levels
		AddSource: logLevel <= slog.LevelWarn,
	})

	return slog.New(handler)
}

// WithTickID returns a new logger that includes the poll tick ID.
// This enables tracing every log entry of one tick across topics and users.
func WithTickID(logger *slog.Logger, tickID string) *slog.Logger {
	if tickID == "" {
		return logger
	}
	return logger.With("tick_id", tickID)
}
