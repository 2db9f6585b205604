package wsbridge

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/wsbridge/wsbridge/internal/metrics"
	"github.com/wsbridge/wsbridge/internal/socket"
)

// dialFunc builds and starts a transport for cfg. Swapped in tests.
type dialFunc func(ctx context.Context, cfg Config, logger *slog.Logger) socket.Conn

func dialSocket(ctx context.Context, cfg Config, logger *slog.Logger) socket.Conn {
	conn := socket.New(cfg.socketConfig(), logger)
	conn.Start(ctx)
	return conn
}

// pendingSend is the single buffered outbound payload. A newer send
// replaces it; it is cleared only once written to an open transport.
type pendingSend struct {
	id   uuid.UUID
	data []byte
}

// Controller owns the lifecycle of one logical connection. It dials in
// the background, tracks phase transitions, schedules fixed-interval
// reconnects up to the configured cap and buffers at most one outbound
// payload until the transport is open.
//
// All methods are safe for concurrent use and none of them block on
// network I/O.
type Controller struct {
	cfg     Config
	logger  *slog.Logger
	clock   clock.Clock
	metrics *metrics.Registry
	dial    dialFunc

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	phase      Phase
	lastMsg    *Message
	lastErr    error
	attempt    int
	pending    *pendingSend
	inflight   *pendingSend
	consumedID uuid.UUID
	conn       socket.Conn
	gen        int
	timer      *clock.Timer
	dialStart  time.Time
	closing    bool
	disposed   bool
}

// NewController validates cfg and starts the first dial. The returned
// controller is already Connecting; poll Snapshot to observe progress.
func NewController(cfg Config, opts ...Option) (*Controller, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newController(cfg, o), nil
}

// newController assumes cfg is validated and defaults are applied.
func newController(cfg Config, o options) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cfg:     cfg,
		logger:  o.logger.With("key", cfg.Key),
		clock:   o.clock,
		metrics: o.metrics,
		dial:    o.dial,
		ctx:     ctx,
		cancel:  cancel,
	}
	c.metrics.ControllerCreated()
	c.mu.Lock()
	c.openLocked()
	c.mu.Unlock()
	return c
}

// Snapshot returns an immutable copy of the connection state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Key:        c.cfg.Key,
		State:      c.phase,
		ReadyState: c.phase.ReadyState(),
		Attempt:    c.attempt,
	}
	if c.lastMsg != nil {
		m := *c.lastMsg
		s.LastMessage = &m
	}
	if c.lastErr != nil {
		s.Error = c.lastErr.Error()
		s.Exhausted = errors.Is(c.lastErr, ErrReconnectExhausted)
	}
	return s
}

// IsOpen reports whether the transport is currently open.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == PhaseOpen
}

// Key returns the connection key.
func (c *Controller) Key() string { return c.cfg.Key }

// Config returns the resolved configuration.
func (c *Controller) Config() Config { return c.cfg }

// Send buffers payload for delivery and returns immediately. When the
// transport is open the payload is handed to it in the background;
// otherwise it is held until the next open. A later Send replaces an
// undelivered payload.
//
// payload may be a string, a []byte or any JSON-marshalable value.
func (c *Controller) Send(payload any) error {
	return c.SendRequest(uuid.New(), payload)
}

// SendRequest is Send with a caller-chosen id. An id that is already
// pending or was already transmitted is a no-op, so callers may retry
// the same request safely.
func (c *Controller) SendRequest(id uuid.UUID, payload any) error {
	data, err := encodePayload(payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	if id != uuid.Nil {
		if id == c.consumedID {
			return nil
		}
		if c.pending != nil && id == c.pending.id {
			return nil
		}
	}
	if c.pending != nil {
		c.logger.Debug("replacing pending payload")
	}
	c.pending = &pendingSend{id: id, data: data}
	if c.phase == PhaseOpen {
		c.flushPendingLocked()
	}
	return nil
}

// Close shuts the connection down cleanly and stops any scheduled
// reconnect. The controller keeps its last state for polling; Dispose
// releases it entirely.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	c.closing = true
	c.stopTimerLocked()
	conn := c.conn
	if conn != nil {
		c.phase = PhaseClosing
	} else {
		c.phase = PhaseClosed
	}
	c.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil && !errors.Is(err, socket.ErrAlreadyClosed) {
			return err
		}
	}
	return nil
}

// Dispose tears the connection down and discards any pending payload.
// The controller cannot be reused afterwards.
func (c *Controller) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	c.closing = true
	c.stopTimerLocked()
	c.pending = nil
	c.phase = PhaseClosed
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	c.cancel()
	if conn != nil {
		_ = conn.Close()
	}
	c.metrics.ControllerDisposed()
	c.logger.Info("connection disposed")
}

// openLocked starts a new transport generation. Callers hold mu.
func (c *Controller) openLocked() {
	c.gen++
	c.phase = PhaseConnecting
	c.dialStart = c.clock.Now()
	conn := c.dial(c.ctx, c.cfg, c.logger)
	c.conn = conn
	c.logger.Info("connecting", "url", c.cfg.URL)
	go c.consume(c.gen, conn)
}

// consume drains one transport's event stream. Events from a stale
// generation are ignored in handleEvent.
func (c *Controller) consume(gen int, conn socket.Conn) {
	for ev := range conn.Events() {
		c.handleEvent(gen, ev)
	}
}

func (c *Controller) handleEvent(gen int, ev socket.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || gen != c.gen {
		return
	}
	switch ev.Kind {
	case socket.KindOpen:
		if c.closing {
			return
		}
		c.handleOpenLocked()
	case socket.KindMessage:
		c.handleMessageLocked(ev)
	case socket.KindClosed, socket.KindError:
		c.handleTerminalLocked(ev)
	}
}

func (c *Controller) handleOpenLocked() {
	c.phase = PhaseOpen
	c.attempt = 0
	c.lastErr = nil
	c.metrics.RecordOpen(c.cfg.Key, c.clock.Since(c.dialStart))
	c.logger.Info("connection open", "url", c.cfg.URL)
	c.flushPendingLocked()
}

func (c *Controller) handleMessageLocked(ev socket.Event) {
	msg := decodeMessage(ev.Data, ev.ReceivedAt)
	c.lastMsg = &msg
	c.metrics.RecordReceived(c.cfg.Key)
}

func (c *Controller) handleTerminalLocked(ev socket.Event) {
	c.conn = nil
	if c.closing {
		c.phase = PhaseClosed
		c.logger.Info("connection closed")
		return
	}
	if ev.Kind == socket.KindError {
		c.phase = PhaseErrored
		c.lastErr = ev.Err
		c.metrics.RecordFailure(c.cfg.Key)
		c.logger.Warn("connection lost", "error", ev.Err)
	} else {
		c.phase = PhaseClosed
		c.lastErr = nil
		c.logger.Info("connection closed by peer")
	}
	c.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the reconnect timer, or pins the
// connection to Errored once the attempt cap is reached.
func (c *Controller) scheduleReconnectLocked() {
	if !c.cfg.AutoReconnect {
		return
	}
	if c.attempt >= c.cfg.MaxReconnectAttempts {
		c.lastErr = exhaustedError(c.attempt, c.lastErr)
		c.phase = PhaseErrored
		c.logger.Error("reconnect attempts exhausted", "attempts", c.attempt)
		return
	}
	c.timer = c.clock.AfterFunc(c.cfg.ReconnectInterval, c.reconnect)
	c.logger.Info("reconnect scheduled",
		"attempt", c.attempt+1,
		"max", c.cfg.MaxReconnectAttempts,
		"interval", c.cfg.ReconnectInterval,
	)
}

// reconnect runs when the reconnect timer fires.
func (c *Controller) reconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || c.closing {
		return
	}
	c.timer = nil
	c.attempt++
	c.metrics.RecordReconnect(c.cfg.Key)
	c.logger.Info("reconnecting", "attempt", c.attempt, "max", c.cfg.MaxReconnectAttempts)
	c.openLocked()
}

// flushPendingLocked hands the pending payload to the transport. The
// write runs on its own goroutine: no caller blocks on network I/O and
// mu stays free for snapshot reads while the write is in flight. At
// most one write is outstanding at a time.
func (c *Controller) flushPendingLocked() {
	if c.pending == nil || c.conn == nil || c.inflight != nil {
		return
	}
	c.inflight = c.pending
	go c.deliver(c.conn, c.inflight)
}

// deliver performs one transport write off the controller lock. A
// failed write keeps the payload pending so the next open retries it;
// a payload queued mid-write is flushed once this one settles.
func (c *Controller) deliver(conn socket.Conn, p *pendingSend) {
	err := conn.Send(p.data)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight = nil
	if c.disposed || c.closing {
		return
	}
	if err != nil {
		c.logger.Warn("send failed", "error", err)
		// A reconnect may have opened a fresh transport while this
		// write was stalled; its open-time flush was skipped, so flush
		// here. Failures on the current transport wait for its
		// terminal event instead.
		if c.phase == PhaseOpen && c.conn != conn {
			c.flushPendingLocked()
		}
		return
	}
	if c.pending == p {
		c.pending = nil
	}
	c.consumedID = p.id
	c.metrics.RecordSent(c.cfg.Key)
	if c.phase == PhaseOpen && c.pending != nil {
		c.flushPendingLocked()
	}
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
