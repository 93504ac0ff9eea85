package peer

import (
	"context"
	"errors"
	"net"
	"net/http"
	"path"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/rs/zerolog"
)

// Server accepts WebSocket connections on any path and broadcasts every text
// message it receives to all connected clients. The last path segment names
// the client, so "/chat/alice" connects as "alice".
type Server struct {
	address  string
	listener net.Listener
	hub      *Hub
	server   *http.Server
	logger   zerolog.Logger
	wg       sync.WaitGroup
}

// New creates a Server listening on address once started.
func New(address string, logger zerolog.Logger) *Server {
	return &Server{
		address: address,
		hub:     NewHub(),
		logger:  logger.With().Str("component", "peer").Logger(),
	}
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWebSocket)
	s.server = &http.Server{Handler: mux}

	s.logger.Info().Str("addr", listener.Addr().String()).Msg("peer listening")
	return nil
}

// Serve accepts connections until Stop. It returns nil after Stop.
func (s *Server) Serve() error {
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start binds and serves. It blocks until Stop.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Stop stops accepting connections, sends a going-away close frame to every
// client and waits for their goroutines to exit.
func (s *Server) Stop() {
	if s.server != nil {
		_ = s.server.Shutdown(context.Background())
	}
	for _, client := range s.hub.Clients() {
		_ = client.closeWith(ws.StatusGoingAway, "server shutting down")
	}
	s.wg.Wait()
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}

// Kick closes every connection whose name matches, as an abnormal server-side
// closure. It returns how many clients were closed.
func (s *Server) Kick(name string, code ws.StatusCode, reason string) int {
	n := 0
	for _, client := range s.hub.Clients() {
		if client.Name == name {
			_ = client.closeWith(code, reason)
			n++
		}
	}
	return n
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := newClient(conn, path.Base(r.URL.Path))
	s.hub.Register(client)
	s.logger.Debug().Str("name", client.Name).Str("remote", client.RemoteAddr()).Msg("client connected")

	s.wg.Add(2)
	go s.readLoop(client)
	go s.writeLoop(client)
}

func (s *Server) readLoop(client *Client) {
	defer s.wg.Done()
	defer func() {
		s.hub.Unregister(client)
		client.stop()
		s.logger.Debug().Str("name", client.Name).Msg("client disconnected")
	}()

	for {
		data, op, err := client.read()
		if err != nil {
			var closed wsutil.ClosedError
			if !errors.As(err, &closed) {
				s.logger.Debug().Err(err).Str("name", client.Name).Msg("read failed")
			}
			return
		}
		if op == ws.OpText {
			s.hub.Broadcast(data)
		}
	}
}

func (s *Server) writeLoop(client *Client) {
	defer s.wg.Done()
	defer client.conn.Close()

	for data := range client.outgoing {
		if err := client.write(data); err != nil {
			s.logger.Debug().Err(err).Str("name", client.Name).Msg("write failed")
			return
		}
	}
}
