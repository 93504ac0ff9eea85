package shell

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omochice/socket-chat-client/internal/notify"
)

func TestTerminalSink_PlainWhenNotTTY(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTerminalSink(&buf)

	sink.Notify("Error: boom", notify.LevelError)
	sink.Notify("Connected", notify.LevelInfo)
	sink.Notify("Not connected", notify.LevelWarning)
	sink.Notify("Server: hi", notify.LevelNone)

	assert.Equal(t, "Error: boom\nConnected\nNot connected\nServer: hi\n", buf.String())
	assert.Len(t, sink.History(), 4)
}

func TestTerminalSink_ClearHistory(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTerminalSink(&buf)

	sink.Notify("You: a", notify.LevelNone)
	sink.ClearHistory()
	sink.Notify("Connection closed", notify.LevelInfo)

	assert.Equal(t, []notify.Entry{{Text: "Connection closed", Level: notify.LevelInfo}}, sink.History())
	assert.Equal(t, "You: a\n--------------------\nConnection closed\n", buf.String())
}

func TestTerminalSink_PrintNotRecorded(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTerminalSink(&buf)

	sink.Print("help")

	assert.Equal(t, "help\n", buf.String())
	assert.Empty(t, sink.History())
}

func TestTerminalSink_ThroughDispatcher(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTerminalSink(&buf)
	d := notify.NewDispatcher(sink)

	d.Dispatch(notify.Connected())
	d.Clear()
	d.Dispatch(notify.Inbound([]byte("x")))
	d.Close()

	assert.Equal(t, []notify.Entry{{Text: "Server: x", Level: notify.LevelNone}}, sink.History())
}
