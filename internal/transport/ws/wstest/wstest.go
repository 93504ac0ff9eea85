// Package wstest provides in-memory ws.Dialer and ws.Conn implementations
// for tests.
package wstest

import (
	"context"
	"net"
	"sync"

	ws "github.com/omochice/socket-chat-client/internal/transport/ws"
)

type event struct {
	data []byte
	err  error
}

// Conn is an in-memory ws.Conn. Inbound traffic is scripted with Push,
// PeerClose and Fail and is read back in that order.
type Conn struct {
	inbound chan event
	dropped chan struct{}
	dropOne sync.Once

	mu         sync.Mutex
	written    []string
	writeErr   error
	closeCalls int
	echoOnce   sync.Once
}

// NewConn creates an open Conn.
func NewConn() *Conn {
	return &Conn{
		inbound: make(chan event, 128),
		dropped: make(chan struct{}),
	}
}

// Push queues an inbound message.
func (c *Conn) Push(msg string) {
	c.inbound <- event{data: []byte(msg)}
}

// PeerClose queues a close frame from the peer.
func (c *Conn) PeerClose(code int, reason string) {
	c.inbound <- event{err: &ws.CloseError{Code: code, Reason: reason}}
}

// Fail queues a transport failure.
func (c *Conn) Fail(err error) {
	c.inbound <- event{err: err}
}

// FailWrites makes subsequent writes return err.
func (c *Conn) FailWrites(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

// Written returns the messages written so far.
func (c *Conn) Written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.written))
	copy(out, c.written)
	return out
}

// CloseCalls returns how many times Close was called.
func (c *Conn) CloseCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCalls
}

// Dropped reports whether CloseNow was called.
func (c *Conn) Dropped() bool {
	select {
	case <-c.dropped:
		return true
	default:
		return false
	}
}

func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.dropped:
		return nil, net.ErrClosed
	case ev := <-c.inbound:
		return ev.data, ev.err
	}
}

func (c *Conn) Write(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.written = append(c.written, string(data))
	return nil
}

// Close records the request and echoes the close frame back, as a
// well-behaved peer does.
func (c *Conn) Close(code int, reason string) error {
	c.mu.Lock()
	c.closeCalls++
	c.mu.Unlock()

	c.echoOnce.Do(func() {
		c.inbound <- event{err: &ws.CloseError{Code: code, Reason: reason}}
	})
	return nil
}

func (c *Conn) CloseNow() error {
	c.dropOne.Do(func() { close(c.dropped) })
	return nil
}

func (c *Conn) RemoteAddr() string {
	return "wstest"
}

// Dialer is an in-memory ws.Dialer handing out a new Conn per Dial.
type Dialer struct {
	mu        sync.Mutex
	err       error
	gate      chan struct{}
	conns     []*Conn
	endpoints []string
}

// NewDialer creates a Dialer whose dials succeed immediately.
func NewDialer() *Dialer {
	return &Dialer{}
}

// FailWith makes subsequent dials fail with err. A nil err restores success.
func (d *Dialer) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// Hold makes subsequent dials block until release is called or their
// context is cancelled.
func (d *Dialer) Hold() (release func()) {
	gate := make(chan struct{})
	d.mu.Lock()
	d.gate = gate
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			if d.gate == gate {
				d.gate = nil
			}
			d.mu.Unlock()
			close(gate)
		})
	}
}

func (d *Dialer) Dial(ctx context.Context, endpoint string) (ws.Conn, error) {
	d.mu.Lock()
	d.endpoints = append(d.endpoints, endpoint)
	gate := d.gate
	d.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	c := NewConn()
	d.conns = append(d.conns, c)
	return c, nil
}

// Conns returns every connection handed out so far.
func (d *Dialer) Conns() []*Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Conn, len(d.conns))
	copy(out, d.conns)
	return out
}

// Last returns the most recent connection, or nil.
func (d *Dialer) Last() *Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

// Endpoints returns the endpoints dialed so far, in order.
func (d *Dialer) Endpoints() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.endpoints))
	copy(out, d.endpoints)
	return out
}

var (
	_ ws.Conn   = (*Conn)(nil)
	_ ws.Dialer = (*Dialer)(nil)
)
