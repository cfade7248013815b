package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is
	ErrValidation = errors.New("validation failed")

	// ErrCorruptSnapshot matches every *CorruptionError via errors.Is
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// ValidationError reports a rejected add: a required field was empty after trimming
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// Is reports whether target is ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// CorruptionError reports a persisted snapshot that is not a valid list of books
type CorruptionError struct {
	Reason string
	Err    error
}

func (e *CorruptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt snapshot: %s: %v", e.Reason, e.Err)
	}
	return "corrupt snapshot: " + e.Reason
}

func (e *CorruptionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCorruptSnapshot
func (e *CorruptionError) Is(target error) bool {
	return target == ErrCorruptSnapshot
}
