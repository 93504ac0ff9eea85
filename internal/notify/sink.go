package notify

import "sync"

// Sink consumes classified notifications, typically a UI.
// Calls arrive one at a time and in emission order.
type Sink interface {
	Notify(text string, level Level)
}

// Clearer is implemented by sinks that keep a displayed history.
type Clearer interface {
	ClearHistory()
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(text string, level Level)

// Notify implements Sink.
func (f SinkFunc) Notify(text string, level Level) {
	f(text, level)
}

// Entry is one line recorded by a Recorder.
type Entry struct {
	Text  string
	Level Level
}

// Recorder is a Sink that keeps its history in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	clears  int
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify implements Sink.
func (r *Recorder) Notify(text string, level Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Text: text, Level: level})
}

// ClearHistory implements Clearer.
func (r *Recorder) ClearHistory() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	r.clears++
}

// Entries returns a copy of the current history.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many entries in the current history have the given text.
func (r *Recorder) Count(text string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Text == text {
			n++
		}
	}
	return n
}

// Clears returns how many times the history was cleared.
func (r *Recorder) Clears() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clears
}
