package civiltime

import "fmt"

// FormatError reports a date or time string that could not be parsed.
type FormatError struct {
	Field string // "date", "time" or "instant"
	Input string
	Err   error
}

// Error implements error.
func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Input, e.Err)
}

// Unwrap exposes the underlying parse error.
func (e *FormatError) Unwrap() error {
	return e.Err
}
