// Package worker holds the background-process plumbing for the bot: the
// poll-loop configuration loaded from the environment, the health-check
// HTTP server, and the worker-level Prometheus metrics.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"arxiv-notifier/internal/pkg/config"
)

// Config holds the configuration for the poll worker. All fields have
// defaults and validation rules; loading is fail-open so a bad environment
// value falls back to the default with a warning instead of refusing to
// start.
type Config struct {
	// PollInterval is how often the poll tick fires.
	// Range: 1 minute - 24 hours. Default: 1 hour.
	PollInterval time.Duration

	// Timezone is the IANA timezone for the scheduler.
	// Default: "UTC".
	Timezone string

	// PollMaxResults caps the number of articles fetched per topic search.
	// Range: 1-500. Default: 100.
	PollMaxResults int

	// PollMinWindow is the floor of the recency window; ticks never search
	// a narrower slice of time than this. Default: 10 minutes.
	PollMinWindow time.Duration

	// PollDriftBuffer is added to the elapsed-since-last-tick window so
	// scheduler jitter cannot open a gap. Default: 5 minutes.
	PollDriftBuffer time.Duration

	// PollInitialWindow is the recency window of the first tick after
	// startup, when there is no previous tick. Default: 1 hour.
	PollInitialWindow time.Duration

	// TestSearchWindow is the recency window for /test searches.
	// Default: 7 days.
	TestSearchWindow time.Duration

	// TestMaxResults caps /test search results. Range: 1-25. Default: 3.
	TestMaxResults int

	// MaxNotificationHistory is the per-user ledger retention ceiling.
	// Range: 1-100000. Default: 1000.
	MaxNotificationHistory int

	// MaxAuthorsDisplay caps the author list in rendered messages before
	// collapsing to "et al.". Range: 1-20. Default: 3.
	MaxAuthorsDisplay int

	// MaxAbstractLength caps the rendered abstract in characters.
	// Range: 100-4000. Default: 700.
	MaxAbstractLength int

	// EnableLinkPreview toggles Telegram link previews on notifications.
	// Default: false.
	EnableLinkPreview bool

	// HealthPort is the port of the health check HTTP server.
	// Range: 1024-65535. Default: 9091.
	HealthPort int
}

// DefaultConfig returns a Config with the default values.
func DefaultConfig() Config {
	return Config{
		PollInterval:           time.Hour,
		Timezone:               "UTC",
		PollMaxResults:         100,
		PollMinWindow:          10 * time.Minute,
		PollDriftBuffer:        5 * time.Minute,
		PollInitialWindow:      time.Hour,
		TestSearchWindow:       7 * 24 * time.Hour,
		TestMaxResults:         3,
		MaxNotificationHistory: 1000,
		MaxAuthorsDisplay:      3,
		MaxAbstractLength:      700,
		EnableLinkPreview:      false,
		HealthPort:             9091,
	}
}

// Validate checks every field and returns the aggregated errors, or nil.
func (c *Config) Validate() error {
	var errs []error

	if err := config.ValidateDuration(c.PollInterval, time.Minute, 24*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("poll interval: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.PollMaxResults, 1, 500); err != nil {
		errs = append(errs, fmt.Errorf("poll max results: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.PollMinWindow); err != nil {
		errs = append(errs, fmt.Errorf("poll min window: %w", err))
	}
	if err := config.ValidateNonNegativeDuration(c.PollDriftBuffer); err != nil {
		errs = append(errs, fmt.Errorf("poll drift buffer: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.PollInitialWindow); err != nil {
		errs = append(errs, fmt.Errorf("poll initial window: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.TestSearchWindow); err != nil {
		errs = append(errs, fmt.Errorf("test search window: %w", err))
	}
	if err := config.ValidateIntRange(c.TestMaxResults, 1, 25); err != nil {
		errs = append(errs, fmt.Errorf("test max results: %w", err))
	}
	if err := config.ValidateIntRange(c.MaxNotificationHistory, 1, 100000); err != nil {
		errs = append(errs, fmt.Errorf("max notification history: %w", err))
	}
	if err := config.ValidateIntRange(c.MaxAuthorsDisplay, 1, 20); err != nil {
		errs = append(errs, fmt.Errorf("max authors display: %w", err))
	}
	if err := config.ValidateIntRange(c.MaxAbstractLength, 100, 4000); err != nil {
		errs = append(errs, fmt.Errorf("max abstract length: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads the worker configuration from environment
// variables with validation and automatic fallback to defaults (fail-open:
// it never returns an error, only a usable configuration).
//
// Environment variables:
//   - POLL_INTERVAL: duration, e.g. "1h" (default: 1h)
//   - WORKER_TIMEZONE: IANA timezone name (default: "UTC")
//   - POLL_MAX_RESULTS: integer 1-500 (default: 100)
//   - POLL_MIN_WINDOW, POLL_DRIFT_BUFFER, POLL_INITIAL_WINDOW: durations
//   - TEST_SEARCH_WINDOW: duration (default: 168h)
//   - TEST_MAX_RESULTS: integer 1-25 (default: 3)
//   - MAX_NOTIFICATION_HISTORY: integer 1-100000 (default: 1000)
//   - MAX_AUTHORS_DISPLAY: integer 1-20 (default: 3)
//   - MAX_ABSTRACT_LENGTH: integer 100-4000 (default: 700)
//   - ENABLE_LINK_PREVIEW: boolean (default: false)
//   - WORKER_HEALTH_PORT: integer 1024-65535 (default: 9091)
//
// Each fallback is logged and counted in the worker config metrics.
func LoadConfigFromEnv(logger *slog.Logger, metrics *Metrics) (*Config, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	applyFallback := func(field string, result config.ConfigLoadResult) {
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvDuration("POLL_INTERVAL", cfg.PollInterval, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Minute, 24*time.Hour)
	})
	cfg.PollInterval = result.Value.(time.Duration)
	applyFallback("poll_interval", result)

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	applyFallback("timezone", result)

	result = config.LoadEnvInt("POLL_MAX_RESULTS", cfg.PollMaxResults, func(v int) error {
		return config.ValidateIntRange(v, 1, 500)
	})
	cfg.PollMaxResults = result.Value.(int)
	applyFallback("poll_max_results", result)

	result = config.LoadEnvDuration("POLL_MIN_WINDOW", cfg.PollMinWindow, config.ValidatePositiveDuration)
	cfg.PollMinWindow = result.Value.(time.Duration)
	applyFallback("poll_min_window", result)

	result = config.LoadEnvDuration("POLL_DRIFT_BUFFER", cfg.PollDriftBuffer, config.ValidateNonNegativeDuration)
	cfg.PollDriftBuffer = result.Value.(time.Duration)
	applyFallback("poll_drift_buffer", result)

	result = config.LoadEnvDuration("POLL_INITIAL_WINDOW", cfg.PollInitialWindow, config.ValidatePositiveDuration)
	cfg.PollInitialWindow = result.Value.(time.Duration)
	applyFallback("poll_initial_window", result)

	result = config.LoadEnvDuration("TEST_SEARCH_WINDOW", cfg.TestSearchWindow, config.ValidatePositiveDuration)
	cfg.TestSearchWindow = result.Value.(time.Duration)
	applyFallback("test_search_window", result)

	result = config.LoadEnvInt("TEST_MAX_RESULTS", cfg.TestMaxResults, func(v int) error {
		return config.ValidateIntRange(v, 1, 25)
	})
	cfg.TestMaxResults = result.Value.(int)
	applyFallback("test_max_results", result)

	result = config.LoadEnvInt("MAX_NOTIFICATION_HISTORY", cfg.MaxNotificationHistory, func(v int) error {
		return config.ValidateIntRange(v, 1, 100000)
	})
	cfg.MaxNotificationHistory = result.Value.(int)
	applyFallback("max_notification_history", result)

	result = config.LoadEnvInt("MAX_AUTHORS_DISPLAY", cfg.MaxAuthorsDisplay, func(v int) error {
		return config.ValidateIntRange(v, 1, 20)
	})
	cfg.MaxAuthorsDisplay = result.Value.(int)
	applyFallback("max_authors_display", result)

	result = config.LoadEnvInt("MAX_ABSTRACT_LENGTH", cfg.MaxAbstractLength, func(v int) error {
		return config.ValidateIntRange(v, 100, 4000)
	})
	cfg.MaxAbstractLength = result.Value.(int)
	applyFallback("max_abstract_length", result)

	result = config.LoadEnvBool("ENABLE_LINK_PREVIEW", cfg.EnableLinkPreview)
	cfg.EnableLinkPreview = result.Value.(bool)
	applyFallback("enable_link_preview", result)

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	applyFallback("health_port", result)

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
