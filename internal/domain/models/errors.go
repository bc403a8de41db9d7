package models

import (
	"errors"
	"fmt"
)

// ErrValidation marks input that was rejected before any mutation took place.
var ErrValidation = errors.New("validation failed")

// Invalidf builds a validation error carrying a user facing message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
