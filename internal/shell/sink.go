package shell

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/omochice/socket-chat-client/internal/notify"
)

// TerminalSink prints notifications to a terminal, styled by level, and
// keeps the displayed history so it can be replayed.
type TerminalSink struct {
	mu      sync.Mutex
	out     io.Writer
	term    *termenv.Output
	tty     bool
	styles  map[notify.Level]lipgloss.Style
	history *notify.Recorder
}

var (
	_ notify.Sink    = (*TerminalSink)(nil)
	_ notify.Clearer = (*TerminalSink)(nil)
)

// NewTerminalSink creates a sink writing to w. Colour is used only when w is
// a terminal.
func NewTerminalSink(w io.Writer) *TerminalSink {
	tty := isTerminal(w)
	renderer := lipgloss.NewRenderer(w)
	if !tty {
		renderer.SetColorProfile(termenv.Ascii)
	}

	return &TerminalSink{
		out:     w,
		term:    termenv.NewOutput(w),
		tty:     tty,
		styles:  levelStyles(renderer),
		history: notify.NewRecorder(),
	}
}

func levelStyles(r *lipgloss.Renderer) map[notify.Level]lipgloss.Style {
	return map[notify.Level]lipgloss.Style{
		notify.LevelNone:    r.NewStyle(),
		notify.LevelError:   r.NewStyle().Foreground(lipgloss.Color("1")).Background(lipgloss.Color("3")),
		notify.LevelInfo:    r.NewStyle().Foreground(lipgloss.Color("4")),
		notify.LevelWarning: r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Notify implements notify.Sink.
func (t *TerminalSink) Notify(text string, level notify.Level) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history.Notify(text, level)
	t.writeLine(t.render(text, level))
}

// ClearHistory implements notify.Clearer. On a terminal the screen is
// cleared; otherwise a separator is printed.
func (t *TerminalSink) ClearHistory() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history.ClearHistory()
	if t.tty {
		t.term.ClearScreen()
		return
	}
	t.writeLine(strings.Repeat("-", 20))
}

// Print writes text without recording it in the history.
func (t *TerminalSink) Print(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeLine(text)
}

// History returns the notifications displayed since the last clear.
func (t *TerminalSink) History() []notify.Entry {
	return t.history.Entries()
}

func (t *TerminalSink) render(text string, level notify.Level) string {
	style, ok := t.styles[level]
	if !ok {
		return text
	}
	return style.Render(text)
}

func (t *TerminalSink) writeLine(s string) {
	fmt.Fprintln(t.out, s)
}
