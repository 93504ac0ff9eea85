package peer

import (
	"bytes"
	"io"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Client is one connection accepted by the Server.
type Client struct {
	Name     string
	conn     net.Conn
	outgoing chan []byte

	writeMu sync.Mutex
	mu      sync.Mutex
	closed  bool
}

func newClient(conn net.Conn, name string) *Client {
	return &Client{
		Name:     name,
		conn:     conn,
		outgoing: make(chan []byte, 16),
	}
}

// RemoteAddr returns the remote address for logging.
func (c *Client) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.outgoing <- data:
		return true
	default:
		return false
	}
}

// stop closes the outgoing queue so the write loop exits.
func (c *Client) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.outgoing)
	}
}

// read returns the next text or binary message. Control frames are answered
// in place; a close frame is answered and reported as wsutil.ClosedError.
func (c *Client) read() ([]byte, ws.OpCode, error) {
	rd := wsutil.Reader{
		Source:    c.conn,
		State:     ws.StateServerSide,
		CheckUTF8: true,
	}
	for {
		hdr, err := rd.NextFrame()
		if err != nil {
			return nil, 0, err
		}
		if hdr.OpCode.IsControl() {
			if err := c.handleControl(hdr, &rd); err != nil {
				return nil, 0, err
			}
			continue
		}
		if hdr.OpCode&(ws.OpText|ws.OpBinary) == 0 {
			if err := rd.Discard(); err != nil {
				return nil, 0, err
			}
			continue
		}
		data, err := io.ReadAll(&rd)
		return data, hdr.OpCode, err
	}
}

// handleControl buffers the control reply so it is written as one frame,
// never interleaved with a message from the write loop.
func (c *Client) handleControl(hdr ws.Header, r io.Reader) error {
	var buf bytes.Buffer
	err := wsutil.ControlFrameHandler(&buf, ws.StateServerSide)(hdr, r)
	if buf.Len() > 0 {
		c.writeMu.Lock()
		_, werr := c.conn.Write(buf.Bytes())
		c.writeMu.Unlock()
		if err == nil {
			err = werr
		}
	}
	return err
}

func (c *Client) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return wsutil.WriteServerMessage(c.conn, ws.OpText, data)
}

// closeWith sends a close frame with the given status and drops the connection.
func (c *Client) closeWith(code ws.StatusCode, reason string) error {
	c.writeMu.Lock()
	_ = wsutil.WriteServerMessage(c.conn, ws.OpClose, ws.NewCloseFrameBody(code, reason))
	c.writeMu.Unlock()
	return c.conn.Close()
}
