package news

import (
	"errors"
	"fmt"
)

// ErrValidation matches every ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a required field that was empty or blank.
type ValidationError struct {
	Entity string
	Field  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s must not be empty", e.Entity, e.Field)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
