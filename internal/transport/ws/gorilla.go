package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// GorillaDialer dials connections with github.com/gorilla/websocket.
type GorillaDialer struct {
	opts   Options
	dialer *websocket.Dialer
}

// NewGorillaDialer creates a GorillaDialer.
func NewGorillaDialer(opts Options) *GorillaDialer {
	opts = opts.withDefaults()
	return &GorillaDialer{
		opts: opts,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.HandshakeTimeout,
		},
	}
}

// Dial implements Dialer.
func (d *GorillaDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("handshake failed with status %s: %w", resp.Status, err)
		}
		return nil, err
	}
	conn.SetReadLimit(d.opts.ReadLimit)
	return &gorillaConn{conn: conn, opts: d.opts}, nil
}

type gorillaConn struct {
	conn *websocket.Conn
	opts Options
}

func (c *gorillaConn) Read(ctx context.Context) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.Close()
	})
	defer stop()

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		var ce *websocket.CloseError
		if errors.As(err, &ce) {
			return nil, &CloseError{Code: ce.Code, Reason: ce.Text, Err: err}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return data, nil
}

func (c *gorillaConn) Write(ctx context.Context, data []byte) error {
	deadline := time.Now().Add(c.opts.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *gorillaConn) Close(code int, reason string) error {
	msg := websocket.FormatCloseMessage(code, reason)
	err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.WriteTimeout))
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		_ = c.conn.Close()
		return err
	}
	// The peer's close reply ends the pending Read; drop the connection if it never arrives.
	time.AfterFunc(c.opts.CloseTimeout, func() {
		_ = c.conn.Close()
	})
	return nil
}

func (c *gorillaConn) CloseNow() error {
	return c.conn.Close()
}

func (c *gorillaConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
