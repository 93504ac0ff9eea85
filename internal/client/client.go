// Package client drives connection sessions in response to operator commands.
package client

// Client is the command surface exposed to an interactive shell.
// Commands never block on network I/O and report their outcome through the
// notification sink rather than return values.
type Client interface {
	Connect()
	Reconnect()
	Disconnect()
	Send(text string)
	ClearHistory()
	SetIdentifier(id string)
	State() State
	Shutdown()
}

var _ Client = (*Controller)(nil)
