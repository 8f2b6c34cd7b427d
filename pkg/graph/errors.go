package graph

import (
	"errors"
	"fmt"
)

// ErrInvalidGraph is the cause of every graph construction failure.
var ErrInvalidGraph = errors.New("invalid graph")

// Error provides structured information about a rejected graph.
type Error struct {
	Op      string // Constructor that failed (e.g., "New", "FromMatrix")
	Edge    int    // Index of the offending edge, -1 when not edge related
	Context string // Additional context
	Cause   error  // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Edge >= 0 {
		if e.Context != "" {
			return fmt.Sprintf("%s edge %d (%s): %v", e.Op, e.Edge, e.Context, e.Cause)
		}
		return fmt.Sprintf("%s edge %d: %v", e.Op, e.Edge, e.Cause)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s (%s): %v", e.Op, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches the cause.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func invalid(op string, edge int, format string, args ...any) error {
	return &Error{
		Op:      op,
		Edge:    edge,
		Context: fmt.Sprintf(format, args...),
		Cause:   ErrInvalidGraph,
	}
}

// IsInvalid returns true if err was caused by an invalid graph.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidGraph)
}
