package worker

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Shared across the package's tests: promauto registers metrics globally,
// so the Metrics instance must be created exactly once per process.
var testMetrics = NewMetrics()

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, time.Hour, cfg.PollInterval)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 100, cfg.PollMaxResults)
	assert.Equal(t, 10*time.Minute, cfg.PollMinWindow)
	assert.Equal(t, 5*time.Minute, cfg.PollDriftBuffer)
	assert.Equal(t, 7*24*time.Hour, cfg.TestSearchWindow)
	assert.Equal(t, 3, cfg.TestMaxResults)
	assert.Equal(t, 1000, cfg.MaxNotificationHistory)
	assert.Equal(t, 9091, cfg.HealthPort)
	assert.False(t, cfg.EnableLinkPreview)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "poll interval too short", mutate: func(c *Config) { c.PollInterval = time.Second }},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus_Mons" }},
		{name: "max results out of range", mutate: func(c *Config) { c.PollMaxResults = 0 }},
		{name: "zero min window", mutate: func(c *Config) { c.PollMinWindow = 0 }},
		{name: "negative drift buffer", mutate: func(c *Config) { c.PollDriftBuffer = -time.Minute }},
		{name: "test max results too high", mutate: func(c *Config) { c.TestMaxResults = 100 }},
		{name: "history out of range", mutate: func(c *Config) { c.MaxNotificationHistory = 0 }},
		{name: "abstract length too small", mutate: func(c *Config) { c.MaxAbstractLength = 10 }},
		{name: "privileged health port", mutate: func(c *Config) { c.HealthPort = 80 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadConfigFromEnv(testLogger(), testMetrics)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "30m")
	t.Setenv("WORKER_TIMEZONE", "Europe/Berlin")
	t.Setenv("POLL_MAX_RESULTS", "50")
	t.Setenv("TEST_MAX_RESULTS", "5")
	t.Setenv("MAX_NOTIFICATION_HISTORY", "200")
	t.Setenv("ENABLE_LINK_PREVIEW", "true")

	cfg, err := LoadConfigFromEnv(testLogger(), testMetrics)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.PollInterval)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, 50, cfg.PollMaxResults)
	assert.Equal(t, 5, cfg.TestMaxResults)
	assert.Equal(t, 200, cfg.MaxNotificationHistory)
	assert.True(t, cfg.EnableLinkPreview)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv_FallsBackOnInvalid(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "not-a-duration")
	t.Setenv("WORKER_TIMEZONE", "Nowhere/Invalid")
	t.Setenv("POLL_MAX_RESULTS", "100000")
	t.Setenv("WORKER_HEALTH_PORT", "42")

	cfg, err := LoadConfigFromEnv(testLogger(), testMetrics)
	require.NoError(t, err)

	// Every bad value falls back to its default; the config stays usable.
	assert.Equal(t, time.Hour, cfg.PollInterval)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 100, cfg.PollMaxResults)
	assert.Equal(t, 9091, cfg.HealthPort)
	require.NoError(t, cfg.Validate())
}
