package wsbridge

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"time"

	"github.com/wsbridge/wsbridge/internal/socket"
)

// Default values for optional configuration fields.
const (
	DefaultReconnectInterval    = 3 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultHandshakeTimeout     = 10 * time.Second
	DefaultWriteTimeout         = 10 * time.Second
	DefaultPingInterval         = 30 * time.Second
	DefaultEventBuffer          = 256
)

// Config describes one logical connection. The zero value of the
// reconnect policy means no reconnection at all; start from
// DefaultConfig for the standard policy (retry every 3s, give up after
// 5 attempts).
type Config struct {
	// URL is the connection target. Required; ws or wss scheme.
	URL string

	// Key identifies the logical connection in the bridge registry.
	// Required.
	Key string

	// Headers are sent with the connect handshake.
	Headers map[string]string

	// Protocols are offered as WebSocket subprotocols, in order.
	Protocols []string

	// AutoReconnect re-dials after a transport failure.
	AutoReconnect bool

	// ReconnectInterval is the fixed delay between reconnect attempts.
	// Must be >= 0; zero retries immediately.
	ReconnectInterval time.Duration

	// MaxReconnectAttempts caps consecutive reconnect attempts since the
	// last successful open. Must be >= 0; zero never retries.
	MaxReconnectAttempts int

	// Transport tuning. Zero values are filled with defaults.
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	EventBuffer      int
}

// DefaultConfig returns the standard reconnect policy. URL and Key must
// still be set by the caller.
func DefaultConfig() Config {
	return Config{
		AutoReconnect:        true,
		ReconnectInterval:    DefaultReconnectInterval,
		MaxReconnectAttempts: DefaultMaxReconnectAttempts,
		HandshakeTimeout:     DefaultHandshakeTimeout,
		WriteTimeout:         DefaultWriteTimeout,
		PingInterval:         DefaultPingInterval,
		EventBuffer:          DefaultEventBuffer,
	}
}

// applyDefaults fills transport tuning zero values. Reconnect policy
// fields are left alone: their zero values are meaningful.
func (c *Config) applyDefaults() {
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.PingInterval == 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.EventBuffer == 0 {
		c.EventBuffer = DefaultEventBuffer
	}
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidConfig)
	}
	if c.URL == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("%w: parse url %q: %v", ErrInvalidConfig, c.URL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("%w: url scheme must be ws or wss, got %q", ErrInvalidConfig, u.Scheme)
	}
	if c.ReconnectInterval < 0 {
		return fmt.Errorf("%w: reconnect_interval must be >= 0", ErrInvalidConfig)
	}
	if c.MaxReconnectAttempts < 0 {
		return fmt.Errorf("%w: max_reconnect_attempts must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// Equal reports whether two configs describe the same connection. The
// bridge uses it to decide whether a Connect call may reuse a live
// controller.
func (c Config) Equal(other Config) bool {
	return c.URL == other.URL &&
		c.Key == other.Key &&
		maps.Equal(c.Headers, other.Headers) &&
		slices.Equal(c.Protocols, other.Protocols) &&
		c.AutoReconnect == other.AutoReconnect &&
		c.ReconnectInterval == other.ReconnectInterval &&
		c.MaxReconnectAttempts == other.MaxReconnectAttempts &&
		c.HandshakeTimeout == other.HandshakeTimeout &&
		c.WriteTimeout == other.WriteTimeout &&
		c.PingInterval == other.PingInterval &&
		c.EventBuffer == other.EventBuffer
}

// socketConfig maps the transport portion of the config.
func (c Config) socketConfig() socket.Config {
	return socket.Config{
		URL:              c.URL,
		Headers:          c.Headers,
		Protocols:        c.Protocols,
		HandshakeTimeout: c.HandshakeTimeout,
		WriteTimeout:     c.WriteTimeout,
		PingInterval:     c.PingInterval,
		EventBuffer:      c.EventBuffer,
	}
}
