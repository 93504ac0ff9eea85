package shell

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omochice/socket-chat-client/internal/client"
	"github.com/omochice/socket-chat-client/internal/notify"
)

type fakeClient struct {
	mu    sync.Mutex
	calls []string
	state client.State
}

func (f *fakeClient) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) Connect()                { f.record("connect") }
func (f *fakeClient) Reconnect()              { f.record("reconnect") }
func (f *fakeClient) Disconnect()             { f.record("disconnect") }
func (f *fakeClient) Send(text string)        { f.record("send " + text) }
func (f *fakeClient) ClearHistory()           { f.record("clear") }
func (f *fakeClient) SetIdentifier(id string) { f.record("name " + id) }
func (f *fakeClient) State() client.State     { return f.state }
func (f *fakeClient) Shutdown()               { f.record("shutdown") }

func TestExecute_Commands(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"/connect", []string{"connect"}},
		{"/reconnect", []string{"reconnect"}},
		{"/disconnect", []string{"disconnect"}},
		{"/clear", []string{"clear"}},
		{"/name bob", []string{"name bob"}},
		{"/name", nil},
		{"hello", []string{"send hello"}},
		{`{"a": 1}`, []string{`send {"a": 1}`}},
		{"", []string{"send "}},
		{"/unknown", nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			fc := &fakeClient{}
			var buf bytes.Buffer
			sh := New(fc, strings.NewReader(""), NewTerminalSink(&buf))

			assert.False(t, sh.Execute(tt.line))
			assert.Equal(t, tt.want, fc.Calls())
		})
	}
}

func TestExecute_Replies(t *testing.T) {
	fc := &fakeClient{state: client.StateConnected}
	var buf bytes.Buffer
	sh := New(fc, strings.NewReader(""), NewTerminalSink(&buf))

	sh.Execute("/state")
	sh.Execute("/name")
	sh.Execute("/bogus")
	sh.Execute("/help")

	out := buf.String()
	assert.Contains(t, out, "connected\n")
	assert.Contains(t, out, "usage: /name <id>")
	assert.Contains(t, out, "unknown command /bogus")
	assert.Contains(t, out, "/disconnect")
}

func TestExecute_History(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTerminalSink(&buf)
	sh := New(&fakeClient{}, strings.NewReader(""), sink)

	sink.Notify("Connected", notify.LevelInfo)
	sink.Notify("Server: hi", notify.LevelNone)
	buf.Reset()

	sh.Execute("/history")
	assert.Equal(t, "Connected\nServer: hi\n", buf.String())
}

func TestExecute_Quit(t *testing.T) {
	fc := &fakeClient{}
	var buf bytes.Buffer
	sh := New(fc, strings.NewReader(""), NewTerminalSink(&buf))

	assert.True(t, sh.Execute("/quit"))
	assert.Empty(t, fc.Calls())
}

func TestRun_UntilQuit(t *testing.T) {
	fc := &fakeClient{}
	var buf bytes.Buffer
	in := strings.NewReader("/connect\nhello\n/quit\nignored\n")
	sh := New(fc, in, NewTerminalSink(&buf))

	require.NoError(t, sh.Run(context.Background()))
	assert.Equal(t, []string{"connect", "send hello"}, fc.Calls())
}

func TestRun_EOF(t *testing.T) {
	fc := &fakeClient{}
	var buf bytes.Buffer
	sh := New(fc, strings.NewReader("a\nb"), NewTerminalSink(&buf))

	require.NoError(t, sh.Run(context.Background()))
	assert.Equal(t, []string{"send a", "send b"}, fc.Calls())
}

func TestRun_ContextCancelled(t *testing.T) {
	fc := &fakeClient{}
	var buf bytes.Buffer
	r, w := io.Pipe()
	defer w.Close()
	sh := New(fc, r, NewTerminalSink(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sh.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
