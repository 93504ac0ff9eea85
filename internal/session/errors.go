package session

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by Send when the session has no live connection.
var ErrNotConnected = errors.New("not connected")

// TransportError represents a failure of the underlying connection.
type TransportError struct {
	Op       string // "dial", "read", "write"
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
