package fields

import (
	"errors"
	"fmt"
)

// ValidationError reports a field write that violated the schema.
// The write is rejected before storage; module state is unchanged.
type ValidationError struct {
	// Field is the name of the field the write targeted.
	Field string

	// Reason describes the violated constraint.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
