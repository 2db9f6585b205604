package socket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
)

// Conn is a single-use WebSocket transport.
type Conn interface {
	// Start launches the dial and read loop. Call exactly once.
	Start(ctx context.Context)

	// Send writes one text frame. Returns ErrNotOpen before the open
	// event or after shutdown.
	Send(data []byte) error

	// Close tears the socket down with a best-effort close frame. The
	// terminal event it produces is KindClosed. Returns ErrAlreadyClosed
	// on repeat calls.
	Close() error

	// Events returns the ordered event stream.
	Events() <-chan Event
}

// conn implements the Conn interface.
type conn struct {
	cfg    Config
	logger *slog.Logger

	events chan Event
	done   chan struct{}

	// Write serialization
	writeMu sync.Mutex

	mu sync.RWMutex
	ws *websocket.Conn

	opened atomic.Bool
	closed atomic.Bool

	terminal sync.Once
}

// New creates an unstarted socket.
func New(cfg Config, logger *slog.Logger) Conn {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}

	return &conn{
		cfg:    cfg,
		logger: logger,
		events: make(chan Event, cfg.EventBuffer),
		done:   make(chan struct{}),
	}
}

// Start launches the dial and read loop.
func (c *conn) Start(ctx context.Context) {
	go c.run(ctx)
}

// Events returns the event stream.
func (c *conn) Events() <-chan Event {
	return c.events
}

// Send writes one text frame to the connection.
func (c *conn) Send(data []byte) error {
	if !c.opened.Load() || c.closed.Load() {
		return ErrNotOpen
	}

	c.mu.RLock()
	ws := c.ws
	c.mu.RUnlock()
	if ws == nil {
		return ErrNotOpen
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return ws.WriteMessage(websocket.TextMessage, data)
}

// Close tears the socket down.
func (c *conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrAlreadyClosed
	}

	c.mu.RLock()
	ws := c.ws
	c.mu.RUnlock()

	if ws != nil {
		// Send close message
		ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return ws.Close()
	}

	// Dial still in flight (or never started): run() observes the closed
	// flag and emits the terminal event.
	return nil
}

// run dials and then reads until the connection dies. One goroutine does
// both so the event order is total.
func (c *conn) run(ctx context.Context) {
	header := http.Header{}
	for k, v := range c.cfg.Headers {
		header.Set(k, v)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
		Subprotocols:     c.cfg.Protocols,
	}

	ws, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		if c.closed.Load() || errors.Is(err, context.Canceled) {
			c.finish(Event{Kind: KindClosed})
		} else {
			c.finish(Event{Kind: KindError, Err: fmt.Errorf("dial %s: %w", c.cfg.URL, err)})
		}
		return
	}

	c.mu.Lock()
	if c.closed.Load() {
		// Close raced the dial; drop the fresh connection.
		c.mu.Unlock()
		ws.Close()
		c.finish(Event{Kind: KindClosed})
		return
	}
	c.ws = ws
	c.mu.Unlock()
	c.opened.Store(true)

	c.events <- Event{Kind: KindOpen}
	c.logger.Debug("websocket connected", "url", c.cfg.URL)

	if c.cfg.PingInterval > 0 {
		go c.pingLoop(ws)
	}

	c.readLoop(ws)
}

// readLoop reads messages and forwards them as events until the
// connection dies, then emits the terminal event.
func (c *conn) readLoop(ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		receivedAt := time.Now() // Capture timestamp immediately

		if err != nil {
			if c.closed.Load() || isExpectedClose(err) {
				c.finish(Event{Kind: KindClosed})
			} else {
				c.finish(Event{Kind: KindError, Err: err})
			}
			return
		}

		select {
		case c.events <- Event{Kind: KindMessage, Data: data, ReceivedAt: receivedAt}:
		default:
			c.logger.Warn("event buffer full, dropping message")
		}
	}
}

// pingLoop sends keepalive pings until the socket shuts down.
func (c *conn) pingLoop(ws *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := ws.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

// finish emits the terminal event exactly once and closes the stream.
func (c *conn) finish(ev Event) {
	c.terminal.Do(func() {
		c.opened.Store(false)
		close(c.done)
		c.events <- ev
		close(c.events)
	})
}

// isExpectedClose reports whether a read error represents a clean
// shutdown rather than a transport failure.
func isExpectedClose(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
