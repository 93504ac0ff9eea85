package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/omochice/socket-chat-client/internal/notify"
	"github.com/omochice/socket-chat-client/internal/session"
	ws "github.com/omochice/socket-chat-client/internal/transport/ws"
	"github.com/omochice/socket-chat-client/pkg/protocol"
)

// Operator-facing notification texts.
const (
	msgNotConnected        = "Not connected"
	msgAlreadyConnected    = "Already connected"
	msgAlreadyDisconnected = "Already disconnected"
	msgStillClosing        = "Still closing"
	msgInvalidJSON         = "Invalid JSON"
	msgEmptyMessage        = "Empty message"
)

// DefaultShutdownGrace is how long Shutdown waits for sessions to finish
// their closing handshake before tearing them down.
const DefaultShutdownGrace = 2 * time.Second

// Options configure a Controller.
type Options struct {
	// Base is the base address the identifier is appended to.
	Base string
	// Identifier is the initial display identifier.
	Identifier string
	// ValidateJSON enables the structured-payload check before sending.
	ValidateJSON bool
	// Dialer opens connections. Required.
	Dialer ws.Dialer
	// Logger receives diagnostic logs. Nil disables logging.
	Logger *zerolog.Logger
	// ShutdownGrace overrides DefaultShutdownGrace.
	ShutdownGrace time.Duration
}

// Controller owns at most one current session and serializes the commands
// that create, replace and tear it down.
type Controller struct {
	dialer        ws.Dialer
	validate      bool
	logger        zerolog.Logger
	shutdownGrace time.Duration
	dispatcher    *notify.Dispatcher

	mu      sync.Mutex
	target  protocol.Target
	state   State
	current *session.Session
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	shutdownOnce sync.Once
}

// New creates a Controller delivering notifications to sink. The sink is
// called from a single goroutine owned by the controller.
func New(opts Options, sink notify.Sink) *Controller {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "client").Logger()
	}
	grace := opts.ShutdownGrace
	if grace <= 0 {
		grace = DefaultShutdownGrace
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		dialer:        opts.Dialer,
		validate:      opts.ValidateJSON,
		logger:        logger,
		shutdownGrace: grace,
		dispatcher:    notify.NewDispatcher(sink),
		target:        protocol.Target{Base: opts.Base, Identifier: opts.Identifier},
		ctx:           ctx,
		cancel:        cancel,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Target returns the target the next session will connect to.
func (c *Controller) Target() protocol.Target {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// SessionID returns the ID of the current session, or "" when there is none.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ""
	}
	return c.current.ID()
}

// SetIdentifier changes the identifier used by the next Connect or Reconnect.
// A running session keeps the endpoint it was started with.
func (c *Controller) SetIdentifier(id string) {
	c.mustInit()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target.Identifier = id
}

// Connect starts a session when none is active. It returns immediately; the
// outcome is reported through the sink.
func (c *Controller) Connect() {
	c.mustInit()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	switch c.state {
	case StateDisconnected:
		c.startLocked()
	case StateClosing:
		c.emit(notify.Warning(msgStillClosing))
	default:
		c.emit(notify.Warning(msgAlreadyConnected))
	}
}

// Reconnect requests the current session to close, without waiting for it,
// and starts a new one with the target as it is now. It is valid in every
// state.
func (c *Controller) Reconnect() {
	c.mustInit()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if c.current != nil {
		if err := c.current.Close(); err != nil {
			c.logger.Debug().Err(err).Str("session", c.current.ID()).Msg("closing previous session failed")
		}
	}
	c.startLocked()
}

// Disconnect closes a live connection and clears the displayed history.
// Without one it only warns; history is left alone.
func (c *Controller) Disconnect() {
	c.mustInit()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if !c.liveLocked() {
		c.emit(notify.Warning(msgAlreadyDisconnected))
		return
	}

	c.dispatcher.Clear()
	c.state = StateClosing
	if err := c.current.Close(); err != nil {
		c.logger.Debug().Err(err).Str("session", c.current.ID()).Msg("close failed")
	}
}

// Send transmits text over the current session. Embedded newlines are
// removed first. Nothing reaches the transport unless the controller is
// connected, the text passes the validation policy and is not empty.
func (c *Controller) Send(text string) {
	c.mustInit()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if !c.liveLocked() {
		c.emit(notify.Warning(msgNotConnected))
		return
	}

	msg, err := protocol.Prepare(text, c.validate)
	switch {
	case errors.Is(err, protocol.ErrInvalidPayload):
		c.logger.Debug().Err(err).Msg("rejected outbound message")
		c.emit(notify.Warning(msgInvalidJSON))
		return
	case errors.Is(err, protocol.ErrEmptyMessage):
		c.emit(notify.Warning(msgEmptyMessage))
		return
	}

	s := c.current
	if err := s.Send(c.ctx, msg); err != nil {
		if errors.Is(err, session.ErrNotConnected) {
			c.emit(notify.Warning(msgNotConnected))
			return
		}
		c.emit(notify.Error(err).WithSession(s.ID()))
		return
	}
	c.logger.Debug().Str("session", s.ID()).Str("message", msg).Msg("sent")
	c.emit(notify.Outbound(msg).WithSession(s.ID()))
}

// ClearHistory asks the sink to clear its displayed history.
func (c *Controller) ClearHistory() {
	c.mustInit()
	c.dispatcher.Clear()
}

// Shutdown closes the current session, waits for every session goroutine to
// exit and flushes pending notifications. Sessions that do not finish their
// closing handshake within the grace period are torn down. Commands issued
// after Shutdown are ignored.
func (c *Controller) Shutdown() {
	c.mustInit()
	c.shutdownOnce.Do(c.shutdown)
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	c.closed = true
	if c.current != nil {
		_ = c.current.Close()
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(c.shutdownGrace):
		c.logger.Debug().Msg("sessions did not close in time, cancelling")
		c.cancel()
		<-done
	}
	c.cancel()
	c.dispatcher.Close()
}

// liveLocked reports whether the current session is connected. The state
// field alone is not enough: the transport may have failed before its close
// event has been processed.
func (c *Controller) liveLocked() bool {
	return c.state == StateConnected && c.current != nil && c.current.IsConnected()
}

func (c *Controller) startLocked() {
	target := c.target
	s := session.New(c.dialer, target.Endpoint(), events{c: c}, c.logger)
	c.current = s
	c.state = StateConnecting
	c.logger.Debug().Str("session", s.ID()).Str("endpoint", s.Endpoint()).Msg("starting session")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		s.Run(c.ctx)
	}()
}

func (c *Controller) emit(n notify.Notification) {
	c.dispatcher.Dispatch(n)
}

func (c *Controller) mustInit() {
	if c.dispatcher == nil {
		panic("client: Controller used without New")
	}
}

// events applies session callbacks to the controller. State changes only
// follow the current session; a replaced session still reports its events
// but cannot move the state of its successor.
type events struct {
	c *Controller
}

func (e events) OnOpen(s *session.Session) {
	c := e.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == s {
		c.state = StateConnected
	}
	c.emit(notify.Connected().WithSession(s.ID()))
}

func (e events) OnMessage(s *session.Session, payload []byte) {
	e.c.emit(notify.Inbound(payload).WithSession(s.ID()))
}

func (e events) OnError(s *session.Session, err error) {
	e.c.emit(notify.Error(err).WithSession(s.ID()))
}

func (e events) OnClose(s *session.Session, code int, reason string) {
	c := e.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == s {
		c.current = nil
		c.state = StateDisconnected
	}
	c.logger.Debug().Str("session", s.ID()).Int("code", code).Str("reason", reason).Msg("session ended")
	c.emit(notify.Closed().WithSession(s.ID()))
}
