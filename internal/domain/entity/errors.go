package entity

import "fmt"

// ValidationError reports which field of a subscription or article failed
// validation and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
