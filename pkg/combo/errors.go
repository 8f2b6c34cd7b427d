package combo

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is the cause of every rejected Options value.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvariantViolation reports partition aggregates that no longer
	// match the assignment at the end of a run.
	ErrInvariantViolation = errors.New("partition invariant violated")
)

// ParameterError names the offending option.
type ParameterError struct {
	Field  string
	Reason string
	Cause  error // validation detail, may be nil
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("combo: %v: %s: %s", ErrInvalidParameter, e.Field, e.Reason)
}

// Unwrap returns ErrInvalidParameter and the validation detail.
func (e *ParameterError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrInvalidParameter}
	}
	return []error{ErrInvalidParameter, e.Cause}
}
