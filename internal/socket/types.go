package socket

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotOpen       = errors.New("socket not open")
	ErrAlreadyClosed = errors.New("socket already closed")
)

// EventKind identifies what an Event carries.
type EventKind int

const (
	// KindOpen signals the dial completed and the socket is writable.
	KindOpen EventKind = iota + 1

	// KindMessage carries one received payload.
	KindMessage

	// KindClosed is terminal: the socket shut down cleanly.
	KindClosed

	// KindError is terminal: the socket failed.
	KindError
)

// Event is one item in a socket's ordered event stream.
type Event struct {
	Kind       EventKind
	Data       []byte    // Payload for KindMessage
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
	Err        error     // Failure detail for KindError
}

// Config tunes a single socket.
type Config struct {
	URL              string            // WebSocket URL (ws:// or wss://)
	Headers          map[string]string // Sent with the connect handshake
	Protocols        []string          // Offered subprotocols, in order
	HandshakeTimeout time.Duration     // Dial deadline
	WriteTimeout     time.Duration     // Write deadline for sends and pings
	PingInterval     time.Duration     // Keepalive ping cadence (0 disables)
	EventBuffer      int               // Event channel buffer size
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		PingInterval:     30 * time.Second,
		EventBuffer:      256,
	}
}
