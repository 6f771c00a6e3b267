// Package config provides reusable configuration loading primitives with a
// fail-open strategy: invalid values fall back to defaults with a warning
// instead of aborting startup.
package config

import (
	"fmt"
	"os"
	"time"
)

// ConfigLoadResult represents the result of loading a configuration value.
// It contains the loaded value, any warnings generated during loading,
// and a flag indicating whether a fallback value was used.
//
// Fields:
//   - Value: The loaded configuration value (may be fallback if validation failed)
//   - Warnings: List of warning messages (one per fallback applied)
//   - FallbackApplied: True if the default value was used due to validation failure
//
// Example:
//
//	result := LoadEnvDuration("POLL_INTERVAL", time.Hour, ValidatePositiveDuration)
//	if result.FallbackApplied {
//	    for _, warning := range result.Warnings {
//	        log.Warn("Configuration warning: %s", warning)
//	    }
//	}
//	interval := result.Value.(time.Duration)
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvString loads a string value from an environment variable.
// If the environment variable is not set, the default value is returned.
// No validation is performed; use LoadEnvWithFallback if validation is needed.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback loads a string value from an environment variable
// with validation and automatic fallback to default on validation failure.
//
// Loading behavior:
//  1. Read environment variable
//  2. If not set or empty: Use default value (no warning)
//  3. If set: Validate using provided validator
//  4. If validation fails: Use default value and generate warning
//
// This function never returns an error. It always returns a valid
// configuration value, either from the environment or the default.
//
// Example:
//
//	result := LoadEnvWithFallback("WORKER_TIMEZONE", "UTC", ValidateTimezone)
//	timezone := result.Value.(string)
//
// Warning format:
//
//	"Invalid {envKey}='{value}': {error}, falling back to default '{default}'"
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	value := os.Getenv(envKey)

	if value == "" {
		return ConfigLoadResult{
			Value:           defaultValue,
			Warnings:        nil,
			FallbackApplied: false,
		}
	}

	if validator != nil {
		if err := validator(value); err != nil {
			warning := fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%s'",
				envKey,
				value,
				err,
				defaultValue,
			)
			return ConfigLoadResult{
				Value:           defaultValue,
				Warnings:        []string{warning},
				FallbackApplied: true,
			}
		}
	}

	return ConfigLoadResult{
		Value:           value,
		Warnings:        nil,
		FallbackApplied: false,
	}
}

// LoadEnvDuration loads a duration value from an environment variable
// with parsing, validation, and automatic fallback to default on failure.
//
// The value must be parseable by time.ParseDuration ("30s", "5m", "1h30m").
// Parsing and validation failures result in warnings, not errors.
//
// Example:
//
//	result := LoadEnvDuration(
//	    "POLL_INTERVAL",
//	    time.Hour,
//	    ValidatePositiveDuration,
//	)
//	interval := result.Value.(time.Duration)
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	valueStr := os.Getenv(envKey)

	if valueStr == "" {
		return ConfigLoadResult{
			Value:           defaultValue,
			Warnings:        nil,
			FallbackApplied: false,
		}
	}

	parsedDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		warning := fmt.Sprintf(
			"Invalid %s='%s': %v, falling back to default '%v'",
			envKey,
			valueStr,
			err,
			defaultValue,
		)
		return ConfigLoadResult{
			Value:           defaultValue,
			Warnings:        []string{warning},
			FallbackApplied: true,
		}
	}

	if validator != nil {
		if err := validator(parsedDuration); err != nil {
			warning := fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%v'",
				envKey,
				valueStr,
				err,
				defaultValue,
			)
			return ConfigLoadResult{
				Value:           defaultValue,
				Warnings:        []string{warning},
				FallbackApplied: true,
			}
		}
	}

	return ConfigLoadResult{
		Value:           parsedDuration,
		Warnings:        nil,
		FallbackApplied: false,
	}
}

// LoadEnvInt loads an integer value from an environment variable
// with parsing, validation, and automatic fallback to default on failure.
//
// Example:
//
//	result := LoadEnvInt(
//	    "POLL_MAX_RESULTS",
//	    100,
//	    func(v int) error { return ValidateIntRange(v, 1, 2000) },
//	)
//	maxResults := result.Value.(int)
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	valueStr := os.Getenv(envKey)

	if valueStr == "" {
		return ConfigLoadResult{
			Value:           defaultValue,
			Warnings:        nil,
			FallbackApplied: false,
		}
	}

	var parsedInt int
	_, err := fmt.Sscanf(valueStr, "%d", &parsedInt)
	if err != nil {
		warning := fmt.Sprintf(
			"Invalid %s='%s': invalid integer format, falling back to default '%d'",
			envKey,
			valueStr,
			defaultValue,
		)
		return ConfigLoadResult{
			Value:           defaultValue,
			Warnings:        []string{warning},
			FallbackApplied: true,
		}
	}

	if validator != nil {
		if err := validator(parsedInt); err != nil {
			warning := fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%d'",
				envKey,
				valueStr,
				err,
				defaultValue,
			)
			return ConfigLoadResult{
				Value:           defaultValue,
				Warnings:        []string{warning},
				FallbackApplied: true,
			}
		}
	}

	return ConfigLoadResult{
		Value:           parsedInt,
		Warnings:        nil,
		FallbackApplied: false,
	}
}

// LoadEnvBool loads a boolean value from an environment variable
// with parsing and automatic fallback to default on failure.
//
// Accepted true values: "1", "t", "T", "true", "TRUE", "True"
// Accepted false values: "0", "f", "F", "false", "FALSE", "False"
//
// Example:
//
//	result := LoadEnvBool("ENABLE_LINK_PREVIEW", false)
//	enablePreview := result.Value.(bool)
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	valueStr := os.Getenv(envKey)

	if valueStr == "" {
		return ConfigLoadResult{
			Value:           defaultValue,
			Warnings:        nil,
			FallbackApplied: false,
		}
	}

	var parsedBool bool
	switch valueStr {
	case "1", "t", "T", "true", "TRUE", "True":
		parsedBool = true
	case "0", "f", "F", "false", "FALSE", "False":
		parsedBool = false
	default:
		warning := fmt.Sprintf(
			"Invalid %s='%s': invalid boolean format, expected 'true' or 'false', falling back to default '%t'",
			envKey,
			valueStr,
			defaultValue,
		)
		return ConfigLoadResult{
			Value:           defaultValue,
			Warnings:        []string{warning},
			FallbackApplied: true,
		}
	}

	return ConfigLoadResult{
		Value:           parsedBool,
		Warnings:        nil,
		FallbackApplied: false,
	}
}
