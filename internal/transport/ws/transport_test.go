package ws_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ws "github.com/omochice/socket-chat-client/internal/transport/ws"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func newServer(t *testing.T, handle func(c *websocket.Conn)) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		handle(c)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dialers() map[string]ws.Dialer {
	opts := ws.Options{CloseTimeout: 500 * time.Millisecond}
	return map[string]ws.Dialer{
		ws.TransportGorilla: ws.NewGorillaDialer(opts),
		ws.TransportNhooyr:  ws.NewNhooyrDialer(opts),
	}
}

func TestConn_Read(t *testing.T) {
	for name, dialer := range dialers() {
		t.Run(name, func(t *testing.T) {
			url := newServer(t, func(c *websocket.Conn) {
				_ = c.WriteMessage(websocket.TextMessage, []byte("test message"))
				_, _, _ = c.ReadMessage()
			})

			conn, err := dialer.Dial(context.Background(), url)
			require.NoError(t, err)
			defer conn.CloseNow()

			data, err := conn.Read(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "test message", string(data))
		})
	}
}

func TestConn_Write(t *testing.T) {
	for name, dialer := range dialers() {
		t.Run(name, func(t *testing.T) {
			received := make(chan []byte, 1)
			url := newServer(t, func(c *websocket.Conn) {
				mt, data, err := c.ReadMessage()
				if err != nil {
					return
				}
				if mt == websocket.TextMessage {
					received <- data
				}
			})

			conn, err := dialer.Dial(context.Background(), url)
			require.NoError(t, err)
			defer conn.CloseNow()

			require.NoError(t, conn.Write(context.Background(), []byte("hello")))

			select {
			case data := <-received:
				assert.Equal(t, "hello", string(data))
			case <-time.After(time.Second):
				t.Fatal("timeout waiting for message")
			}
		})
	}
}

func TestConn_PeerClose(t *testing.T) {
	for name, dialer := range dialers() {
		t.Run(name, func(t *testing.T) {
			url := newServer(t, func(c *websocket.Conn) {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
				_ = c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
				_, _, _ = c.ReadMessage()
			})

			conn, err := dialer.Dial(context.Background(), url)
			require.NoError(t, err)
			defer conn.CloseNow()

			_, err = conn.Read(context.Background())
			require.Error(t, err)

			ce, ok := ws.AsCloseError(err)
			require.True(t, ok, "expected close error, got %v", err)
			assert.Equal(t, ws.StatusNormalClosure, ce.Code)
			assert.Equal(t, "bye", ce.Reason)
			assert.True(t, ws.IsNormalClosure(err))
		})
	}
}

func TestConn_CloseHandshake(t *testing.T) {
	for name, dialer := range dialers() {
		t.Run(name, func(t *testing.T) {
			url := newServer(t, func(c *websocket.Conn) {
				// The default close handler echoes the close frame.
				for {
					if _, _, err := c.ReadMessage(); err != nil {
						return
					}
				}
			})

			conn, err := dialer.Dial(context.Background(), url)
			require.NoError(t, err)
			defer conn.CloseNow()

			readErr := make(chan error, 1)
			go func() {
				_, err := conn.Read(context.Background())
				readErr <- err
			}()

			require.NoError(t, conn.Close(ws.StatusNormalClosure, ""))

			select {
			case err := <-readErr:
				assert.Error(t, err)
			case <-time.After(2 * time.Second):
				t.Fatal("Read did not return after Close")
			}
		})
	}
}

func TestConn_ReadCancelled(t *testing.T) {
	for name, dialer := range dialers() {
		t.Run(name, func(t *testing.T) {
			url := newServer(t, func(c *websocket.Conn) {
				_, _, _ = c.ReadMessage()
			})

			conn, err := dialer.Dial(context.Background(), url)
			require.NoError(t, err)
			defer conn.CloseNow()

			ctx, cancel := context.WithCancel(context.Background())
			readErr := make(chan error, 1)
			go func() {
				_, err := conn.Read(ctx)
				readErr <- err
			}()
			cancel()

			select {
			case err := <-readErr:
				assert.Error(t, err)
			case <-time.After(2 * time.Second):
				t.Fatal("Read did not return after cancel")
			}
		})
	}
}

func TestDialer_Unreachable(t *testing.T) {
	for name, dialer := range dialers() {
		t.Run(name, func(t *testing.T) {
			_, err := dialer.Dial(context.Background(), "ws://127.0.0.1:1/ws")
			assert.Error(t, err)
		})
	}
}

func TestDialer_HandshakeRejected(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	for name, dialer := range dialers() {
		t.Run(name, func(t *testing.T) {
			_, err := dialer.Dial(context.Background(), url)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "404")
		})
	}
}

func TestNewDialer(t *testing.T) {
	d, err := ws.NewDialer("", ws.Options{})
	require.NoError(t, err)
	assert.IsType(t, &ws.GorillaDialer{}, d)

	d, err = ws.NewDialer(ws.TransportNhooyr, ws.Options{})
	require.NoError(t, err)
	assert.IsType(t, &ws.NhooyrDialer{}, d)

	_, err = ws.NewDialer("carrier-pigeon", ws.Options{})
	assert.Error(t, err)
}

func TestIsNormalClosure(t *testing.T) {
	assert.True(t, ws.IsNormalClosure(&ws.CloseError{Code: ws.StatusNoStatusReceived}))
	assert.False(t, ws.IsNormalClosure(&ws.CloseError{Code: 1011}))
	assert.False(t, ws.IsNormalClosure(errors.New("reset")))
}
