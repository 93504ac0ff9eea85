// Package notify defines the classified notification stream the client core
// emits and the contract of the consumer that displays it.
package notify

import "fmt"

// Level is the display class of a notification.
type Level int

const (
	LevelNone Level = iota
	LevelError
	LevelInfo
	LevelWarning
)

// String returns the string representation of Level
func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelError:
		return "error"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Kind tags what a notification describes.
type Kind int

const (
	KindPlainInfo Kind = iota
	KindConnected
	KindClosed
	KindError
	KindWarning
	KindInbound
	KindOutbound
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindPlainInfo:
		return "info"
	case KindConnected:
		return "connected"
	case KindClosed:
		return "closed"
	case KindError:
		return "error"
	case KindWarning:
		return "warning"
	case KindInbound:
		return "inbound"
	case KindOutbound:
		return "outbound"
	default:
		return "unknown"
	}
}

// Level maps the kind onto the level a Sink receives.
func (k Kind) Level() Level {
	switch k {
	case KindPlainInfo, KindConnected, KindClosed:
		return LevelInfo
	case KindError:
		return LevelError
	case KindWarning:
		return LevelWarning
	default:
		return LevelNone
	}
}

// Notification is a classified, displayable event. It is never mutated after
// creation.
type Notification struct {
	Kind Kind
	Text string
	// Session is the ID of the session that raised the event, empty for
	// notifications produced by the controller itself.
	Session string
}

// Level returns the display level of the notification.
func (n Notification) Level() Level {
	return n.Kind.Level()
}

// WithSession returns a copy of n attributed to the given session.
func (n Notification) WithSession(id string) Notification {
	n.Session = id
	return n
}

func Connected() Notification {
	return Notification{Kind: KindConnected, Text: "Connected"}
}

func Closed() Notification {
	return Notification{Kind: KindClosed, Text: "Connection closed"}
}

func Inbound(payload []byte) Notification {
	return Notification{Kind: KindInbound, Text: "Server: " + string(payload)}
}

func Outbound(text string) Notification {
	return Notification{Kind: KindOutbound, Text: "You: " + text}
}

func Error(err error) Notification {
	return Notification{Kind: KindError, Text: fmt.Sprintf("Error: %v", err)}
}

func Warning(text string) Notification {
	return Notification{Kind: KindWarning, Text: text}
}

func Info(text string) Notification {
	return Notification{Kind: KindPlainInfo, Text: text}
}
