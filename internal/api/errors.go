package api

import (
	"errors"
	"fmt"
	"net/http"
)

// RemoteError is any failure talking to the Export API. Status is the HTTP
// status code when one was received, 0 for transport-level failures.
type RemoteError struct {
	Op     string // endpoint, for diagnostics
	Status int
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("api: %s: HTTP %d", e.Op, e.Status)
	}
	return fmt.Sprintf("api: %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsForbidden reports whether err is a RemoteError carrying a 403. Access
// denial is derived from the status at this boundary, not a distinct wire
// type.
func IsForbidden(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Status == http.StatusForbidden
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}
