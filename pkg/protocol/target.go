// Package protocol defines the wire-level conventions of the chat client:
// how the connection endpoint is built and how outbound text is prepared.
package protocol

// Target is the address a session connects to.
type Target struct {
	// Base is the configured base address, e.g. "ws://localhost:8080/ws/".
	Base string
	// Identifier is the operator-supplied display name.
	Identifier string
}

// Endpoint returns the URL a session dials.
// The identifier is appended to the base verbatim; no separator is inserted,
// so a base without a trailing slash yields e.g. "ws://host/chatalice".
func (t Target) Endpoint() string {
	return t.Base + t.Identifier
}
