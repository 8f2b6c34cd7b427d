package pajek

import (
	"errors"
	"fmt"
)

// ErrGraphFormat is the sentinel matched by every parse failure.
var ErrGraphFormat = errors.New("malformed pajek network")

// FormatError reports a parse failure at a specific line. Line is 1-based;
// zero means the problem concerns the file as a whole.
type FormatError struct {
	Line   int
	Text   string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("pajek: %s", e.Reason)
	}
	return fmt.Sprintf("pajek: line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Unwrap returns ErrGraphFormat
func (e *FormatError) Unwrap() error {
	return ErrGraphFormat
}

func formatError(line int, text, format string, args ...any) *FormatError {
	return &FormatError{Line: line, Text: text, Reason: fmt.Sprintf(format, args...)}
}
