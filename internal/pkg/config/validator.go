package config

import (
	"fmt"
	"time"
)

// ValidateTimezone validates a timezone string by attempting to load it
// using the standard library time.LoadLocation function.
//
// The timezone must be a valid IANA timezone name:
//   - Example: "UTC"
//   - Example: "America/New_York"
//   - Example: "Asia/Tokyo"
//
// This validation depends on the availability of timezone data in the
// system. If timezone data is not available (e.g., missing tzdata package
// in a container image), it may fail even for valid timezone names.
func ValidateTimezone(timezone string) error {
	if timezone == "" {
		return fmt.Errorf("invalid timezone: cannot be empty")
	}

	_, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", timezone, err)
	}

	return nil
}

// ValidateDuration validates that a duration is within a specified range.
// The duration must be >= min and <= max (inclusive).
//
// Example:
//
//	// Validate poll interval is between 1 minute and 24 hours
//	err := ValidateDuration(interval, 1*time.Minute, 24*time.Hour)
func ValidateDuration(duration, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
	}

	if duration < min {
		return fmt.Errorf("duration %v is below minimum %v", duration, min)
	}

	if duration > max {
		return fmt.Errorf("duration %v exceeds maximum %v", duration, max)
	}

	return nil
}

// ValidateIntRange validates that an integer value is within a specified range.
// The value must be >= min and <= max (inclusive).
//
// Example:
//
//	// Validate result cap is between 1 and 2000
//	err := ValidateIntRange(maxResults, 1, 2000)
func ValidateIntRange(value, min, max int) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
	}

	if value < min {
		return fmt.Errorf("value %d is below minimum %d", value, min)
	}

	if value > max {
		return fmt.Errorf("value %d exceeds maximum %d", value, max)
	}

	return nil
}

// ValidatePositiveDuration validates that a duration is positive (greater than zero).
// This is the common validation for timeouts, delays, and intervals that
// must have a non-zero, non-negative value.
func ValidatePositiveDuration(duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", duration)
	}

	return nil
}

// ValidateNonNegativeDuration validates that a duration is non-negative (>= 0).
// Useful for optional buffers and delays where zero is acceptable
// but negative values are not.
func ValidateNonNegativeDuration(duration time.Duration) error {
	if duration < 0 {
		return fmt.Errorf("duration must be non-negative, got %v", duration)
	}

	return nil
}
