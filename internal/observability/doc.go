// Package observability provides logging and metrics infrastructure for the application.
//
// Subpackages:
//   - logging: structured logging built on log/slog with context propagation
//   - metrics: centralized Prometheus metric definitions and record helpers
package observability
