// Package session owns the lifecycle of a single streaming connection.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	ws "github.com/omochice/socket-chat-client/internal/transport/ws"
)

// StatusAbnormalClosure is reported to OnClose when the connection ended
// without a close frame.
const StatusAbnormalClosure = 1006

// Handler receives the lifecycle events of a Session. All methods are called
// from the goroutine running Session.Run, in the order the transport raises
// them.
type Handler interface {
	OnOpen(s *Session)
	OnMessage(s *Session, payload []byte)
	OnError(s *Session, err error)
	OnClose(s *Session, code int, reason string)
}

// Session wraps one connection to an endpoint and its receive loop.
type Session struct {
	id       string
	endpoint string
	dialer   ws.Dialer
	handler  Handler
	logger   zerolog.Logger

	mu         sync.RWMutex
	conn       ws.Conn
	closing    bool
	cancelDial context.CancelFunc

	writeMu sync.Mutex
	closers sync.WaitGroup
}

// New creates a Session for endpoint. Nothing is dialed until Run.
func New(dialer ws.Dialer, endpoint string, handler Handler, logger zerolog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:       id,
		endpoint: endpoint,
		dialer:   dialer,
		handler:  handler,
		logger:   logger.With().Str("session", id).Str("endpoint", endpoint).Logger(),
	}
}

// ID returns the unique identifier of the session.
func (s *Session) ID() string {
	return s.id
}

// Endpoint returns the URL the session dials.
func (s *Session) Endpoint() string {
	return s.endpoint
}

// IsConnected reports whether the session holds an open connection that has
// not been asked to close.
func (s *Session) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn != nil && !s.closing
}

// Run dials the endpoint and reads until the connection ends. It blocks, so
// callers run it on its own goroutine. OnClose is called exactly once before
// Run returns.
func (s *Session) Run(ctx context.Context) {
	dialCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		s.handler.OnClose(s, ws.StatusNormalClosure, "")
		return
	}
	s.cancelDial = cancel
	s.mu.Unlock()

	s.logger.Debug().Msg("dialing")
	conn, err := s.dialer.Dial(dialCtx, s.endpoint)

	s.mu.Lock()
	s.cancelDial = nil
	closing := s.closing
	if err == nil && !closing {
		s.conn = conn
	}
	s.mu.Unlock()

	if err != nil {
		if closing {
			s.logger.Debug().Msg("dial abandoned")
			s.handler.OnClose(s, ws.StatusNormalClosure, "")
			return
		}
		s.logger.Debug().Err(err).Msg("dial failed")
		s.handler.OnError(s, &TransportError{Op: "dial", Endpoint: s.endpoint, Err: err})
		s.handler.OnClose(s, StatusAbnormalClosure, "")
		return
	}
	if closing {
		// Closed while the handshake was in flight.
		_ = conn.CloseNow()
		s.handler.OnClose(s, ws.StatusNormalClosure, "")
		return
	}

	s.logger.Debug().Str("remote", conn.RemoteAddr()).Msg("connected")
	s.handler.OnOpen(s)

	code, reason := s.receive(ctx, conn)

	s.mu.Lock()
	s.conn = nil
	s.mu.Unlock()
	_ = conn.CloseNow()
	s.closers.Wait()

	s.logger.Debug().Int("code", code).Str("reason", reason).Msg("connection closed")
	s.handler.OnClose(s, code, reason)
}

func (s *Session) receive(ctx context.Context, conn ws.Conn) (int, string) {
	for {
		data, err := conn.Read(ctx)
		if err == nil {
			s.handler.OnMessage(s, data)
			continue
		}

		if ce, ok := ws.AsCloseError(err); ok {
			return ce.Code, ce.Reason
		}
		if s.isClosing() || ctx.Err() != nil {
			// Teardown we asked for.
			return ws.StatusNormalClosure, ""
		}
		s.logger.Debug().Err(err).Msg("read failed")
		s.handler.OnError(s, &TransportError{Op: "read", Endpoint: s.endpoint, Err: err})
		return StatusAbnormalClosure, ""
	}
}

// Send writes text as a single message. It returns ErrNotConnected unless the
// session holds an open connection.
func (s *Session) Send(ctx context.Context, text string) error {
	s.mu.RLock()
	conn := s.conn
	closing := s.closing
	s.mu.RUnlock()

	if conn == nil || closing {
		return ErrNotConnected
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.Write(ctx, []byte(text)); err != nil {
		return &TransportError{Op: "write", Endpoint: s.endpoint, Err: err}
	}
	return nil
}

// Close requests an orderly shutdown of the connection and returns without
// waiting for it. Closing a session that is not connected, or is already
// closing, is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return nil
	}
	s.closing = true

	if s.cancelDial != nil {
		s.cancelDial()
		return nil
	}
	if s.conn == nil {
		return nil
	}

	conn := s.conn
	s.closers.Add(1)
	go func() {
		defer s.closers.Done()
		if err := conn.Close(ws.StatusNormalClosure, ""); err != nil {
			s.logger.Debug().Err(err).Msg("close handshake failed")
			_ = conn.CloseNow()
		}
	}()
	return nil
}

func (s *Session) isClosing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closing
}
