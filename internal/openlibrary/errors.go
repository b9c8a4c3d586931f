package openlibrary

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no identifier was supplied or the upstream has
// no record for it.
var ErrNotFound = errors.New("not found")

// NetworkError reports a failed upstream call: either the transport failed
// (Err is set) or the upstream answered with a non-success status.
type NetworkError struct {
	Op         string // "search", "fetch book details", ...
	StatusCode int
	Status     string // upstream status text, e.g. "503 Service Unavailable"
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Status)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is, or wraps, a *NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
