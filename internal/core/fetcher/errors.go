package fetcher

import "fmt"

// ErrorCause separates an exceeded fetch deadline from other transport
// failures so callers can report them distinctly.
type ErrorCause string

const (
	CauseTimeout ErrorCause = "timeout"
	CauseNetwork ErrorCause = "network"
)

// Error is a failed fetch attempt.
type Error struct {
	Cause ErrorCause
	URL   string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Cause, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the error is a fetch deadline failure.
func (e *Error) IsTimeout() bool {
	return e.Cause == CauseTimeout
}
