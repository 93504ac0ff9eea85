package ws

import (
	"context"
	"errors"
	"fmt"

	"nhooyr.io/websocket"
)

// NhooyrDialer dials connections with nhooyr.io/websocket.
type NhooyrDialer struct {
	opts Options
}

// NewNhooyrDialer creates a NhooyrDialer.
func NewNhooyrDialer(opts Options) *NhooyrDialer {
	return &NhooyrDialer{opts: opts.withDefaults()}
}

// Dial implements Dialer.
func (d *NhooyrDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.HandshakeTimeout)
	defer cancel()

	conn, resp, err := websocket.Dial(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("handshake failed with status %s: %w", resp.Status, err)
		}
		return nil, err
	}
	conn.SetReadLimit(d.opts.ReadLimit)

	addr := ""
	if resp != nil && resp.Request != nil {
		addr = resp.Request.URL.Host
	}
	return &nhooyrConn{conn: conn, opts: d.opts, remoteAddr: addr}, nil
}

type nhooyrConn struct {
	conn       *websocket.Conn
	opts       Options
	remoteAddr string
}

func (c *nhooyrConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		var ce websocket.CloseError
		if errors.As(err, &ce) {
			return nil, &CloseError{Code: int(ce.Code), Reason: ce.Reason, Err: err}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return data, nil
}

func (c *nhooyrConn) Write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.WriteTimeout)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// Close blocks until the handshake completes or the library's own close
// timeout expires.
func (c *nhooyrConn) Close(code int, reason string) error {
	return c.conn.Close(websocket.StatusCode(code), reason)
}

func (c *nhooyrConn) CloseNow() error {
	return c.conn.CloseNow()
}

func (c *nhooyrConn) RemoteAddr() string {
	return c.remoteAddr
}
