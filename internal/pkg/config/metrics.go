package config

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics provides parameterized Prometheus metrics for configuration management.
// This factory creates a standard set of metrics for tracking configuration state,
// validation errors, and fallback behavior per component.
//
// Metrics generated (parameterized by component name):
//   - {component}_config_load_timestamp: Unix timestamp of last configuration load
//   - {component}_config_validation_errors_total: Total validation errors by field
//   - {component}_config_fallbacks_total: Total fallback operations by field
//   - {component}_config_fallback_active: 1 if any fallback active, 0 otherwise
//
// Example usage:
//
//	var Metrics = config.NewConfigMetrics("worker")
//
//	Metrics.RecordLoadTimestamp()
//	Metrics.RecordValidationError("poll_interval")
//	Metrics.RecordFallback("poll_interval", "default")
//	Metrics.SetFallbackActive("", true)
type ConfigMetrics struct {
	// LoadTimestamp records the Unix timestamp of the last configuration load.
	LoadTimestamp prometheus.Gauge

	// ValidationErrorsTotal counts configuration validation errors by field.
	ValidationErrorsTotal *prometheus.CounterVec

	// FallbacksTotal counts fallback operations by field.
	FallbacksTotal *prometheus.CounterVec

	// FallbackActive indicates whether any fallback is currently active (1 or 0).
	FallbackActive prometheus.Gauge

	componentName string
}

// NewConfigMetrics creates a new ConfigMetrics instance with component-specific
// metric names. The component name prefixes all metrics to avoid naming conflicts.
//
// Note: Metrics are automatically registered with the Prometheus default registry.
// If metrics with the same name already exist, this function will panic.
// Use unique component names to avoid conflicts.
func NewConfigMetrics(componentName string) *ConfigMetrics {
	return &ConfigMetrics{
		LoadTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_load_timestamp", componentName),
			Help: fmt.Sprintf("Unix timestamp of last %s configuration load", componentName),
		}),

		ValidationErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_validation_errors_total", componentName),
			Help: fmt.Sprintf("Total number of %s configuration validation errors", componentName),
		}, []string{"field"}),

		FallbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_fallbacks_total", componentName),
			Help: fmt.Sprintf("Total number of %s configuration fallback operations", componentName),
		}, []string{"field"}),

		FallbackActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_fallback_active", componentName),
			Help: fmt.Sprintf("1 if any %s configuration fallback is active, 0 otherwise", componentName),
		}),

		componentName: componentName,
	}
}

// RecordLoadTimestamp records the current time as the configuration load timestamp.
func (m *ConfigMetrics) RecordLoadTimestamp() {
	m.LoadTimestamp.SetToCurrentTime()
}

// RecordValidationError increments the validation error counter for a specific field.
func (m *ConfigMetrics) RecordValidationError(field string) {
	m.ValidationErrorsTotal.WithLabelValues(field).Inc()
}

// RecordFallback increments the fallback counter for a specific field.
func (m *ConfigMetrics) RecordFallback(field, fallbackType string) {
	m.FallbacksTotal.WithLabelValues(field).Inc()
}

// SetFallbackActive sets the fallback active status.
// Set to true (1) if any configuration field is using a fallback value.
func (m *ConfigMetrics) SetFallbackActive(field string, active bool) {
	if active {
		m.FallbackActive.Set(1)
	} else {
		m.FallbackActive.Set(0)
	}
}
