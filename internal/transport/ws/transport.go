// Package ws provides the WebSocket transport used by client sessions.
package ws

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Conn abstracts one client-side WebSocket connection.
// Read is called from a single goroutine; Write calls must not overlap.
// Close may be called concurrently with Read and Write.
type Conn interface {
	// Read returns the payload of the next text or binary message.
	// Cancelling ctx tears the connection down. A close frame from the peer
	// is returned as a *CloseError.
	Read(ctx context.Context) ([]byte, error)

	// Write sends data as a single text message.
	Write(ctx context.Context, data []byte) error

	// Close starts the closing handshake with the given status code. The
	// pending Read returns once the peer answers or the close timeout expires.
	Close(code int, reason string) error

	// CloseNow drops the underlying connection without a handshake.
	CloseNow() error

	// RemoteAddr returns the remote address for logging.
	RemoteAddr() string
}

// Dialer opens connections to an endpoint URL.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// Close status codes used by the client.
const (
	StatusNormalClosure    = 1000
	StatusGoingAway        = 1001
	StatusNoStatusReceived = 1005
)

// CloseError reports that the peer closed the connection with a close frame.
type CloseError struct {
	Code   int
	Reason string
	Err    error
}

func (e *CloseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("connection closed with status %d", e.Code)
	}
	return fmt.Sprintf("connection closed with status %d: %s", e.Code, e.Reason)
}

func (e *CloseError) Unwrap() error { return e.Err }

// AsCloseError extracts the close frame details from err.
func AsCloseError(err error) (*CloseError, bool) {
	var ce *CloseError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsNormalClosure reports whether err is an orderly close by the peer.
// An empty close frame (no status) counts as orderly.
func IsNormalClosure(err error) bool {
	ce, ok := AsCloseError(err)
	if !ok {
		return false
	}
	switch ce.Code {
	case StatusNormalClosure, StatusGoingAway, StatusNoStatusReceived:
		return true
	default:
		return false
	}
}

// Options tune a Dialer. Zero values fall back to DefaultOptions.
type Options struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	// CloseTimeout bounds how long a closing handshake waits for the peer.
	CloseTimeout time.Duration
	// ReadLimit is the maximum size in bytes of an inbound message.
	ReadLimit int64
}

// DefaultOptions returns the options used for unset fields.
func DefaultOptions() Options {
	return Options{
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     5 * time.Second,
		CloseTimeout:     3 * time.Second,
		ReadLimit:        1 << 20,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = d.HandshakeTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = d.WriteTimeout
	}
	if o.CloseTimeout <= 0 {
		o.CloseTimeout = d.CloseTimeout
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = d.ReadLimit
	}
	return o
}

// Transport names accepted by NewDialer.
const (
	TransportGorilla = "gorilla"
	TransportNhooyr  = "nhooyr"
)

// NewDialer returns the Dialer registered under name. An empty name selects
// the gorilla implementation.
func NewDialer(name string, opts Options) (Dialer, error) {
	switch name {
	case "", TransportGorilla:
		return NewGorillaDialer(opts), nil
	case TransportNhooyr:
		return NewNhooyrDialer(opts), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", name)
	}
}
