// Package shell is a line-oriented terminal front end for the client.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/omochice/socket-chat-client/internal/client"
	"github.com/omochice/socket-chat-client/internal/notify"
)

// Output receives the shell's own replies, such as help text.
type Output interface {
	Print(text string)
}

// historian is implemented by outputs that remember displayed notifications.
type historian interface {
	History() []notify.Entry
}

const helpText = `Commands:
  /connect          open a connection
  /reconnect        replace the current connection
  /disconnect       close the connection and clear the history
  /clear            clear the history
  /name <id>        set the identifier used by the next connection
  /state            show the connection state
  /history          show the displayed history
  /help             show this help
  /quit             close the connection and exit
Any other line is sent as a message.`

// Shell reads commands and messages line by line and forwards them to a
// client.Client.
type Shell struct {
	client client.Client
	in     io.Reader
	out    Output
	logger zerolog.Logger
}

// Option configures a Shell.
type Option func(*Shell)

// WithLogger sets the shell logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Shell) {
		s.logger = logger
	}
}

// New creates a Shell reading from in and replying on out.
func New(c client.Client, in io.Reader, out Output, opts ...Option) *Shell {
	s := &Shell{
		client: c,
		in:     in,
		out:    out,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes input until /quit, end of input or ctx is done. The client
// is not shut down; that is left to the caller.
func (s *Shell) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return nil
		case line := <-lines:
			if quit := s.Execute(line); quit {
				return nil
			}
		}
	}
}

// Execute handles one input line and reports whether the shell should exit.
func (s *Shell) Execute(line string) bool {
	if !strings.HasPrefix(line, "/") {
		s.client.Send(line)
		return false
	}

	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	s.logger.Debug().Str("command", cmd).Msg("shell command")

	switch cmd {
	case "/connect":
		s.client.Connect()
	case "/reconnect":
		s.client.Reconnect()
	case "/disconnect":
		s.client.Disconnect()
	case "/clear":
		s.client.ClearHistory()
	case "/name":
		if arg == "" {
			s.out.Print("usage: /name <id>")
			return false
		}
		s.client.SetIdentifier(arg)
		s.out.Print(fmt.Sprintf("identifier set to %q", arg))
	case "/state":
		s.out.Print(s.client.State().String())
	case "/history":
		h, ok := s.out.(historian)
		if !ok {
			s.out.Print("history is not available")
			return false
		}
		for _, e := range h.History() {
			s.out.Print(e.Text)
		}
	case "/help":
		s.out.Print(helpText)
	case "/quit":
		return true
	default:
		s.out.Print(fmt.Sprintf("unknown command %s, try /help", cmd))
	}
	return false
}
