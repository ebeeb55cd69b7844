package steam

import (
	"errors"
	"fmt"
)

// StatusError captures a non-2xx upstream response.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("steam: %s returned %d: %s", e.Path, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("steam: %s returned %d", e.Path, e.StatusCode)
}

// AsStatusError attempts to unwrap an error into a StatusError.
func AsStatusError(err error) (*StatusError, bool) {
	var sErr *StatusError
	if errors.As(err, &sErr) {
		return sErr, true
	}
	return nil, false
}
