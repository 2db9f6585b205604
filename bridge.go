package wsbridge

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Bridge is a keyed registry of connections. Hosts address a connection
// by a stable key and poll its snapshot; the bridge keeps the
// underlying Controller alive across host re-renders, so repeated
// Connect calls for the same key are cheap.
type Bridge struct {
	opts   options
	logger *slog.Logger

	mu     sync.RWMutex
	conns  map[string]*Controller
	closed bool
}

// New returns an empty Bridge. Options apply to every connection it
// creates.
func New(opts ...Option) *Bridge {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Bridge{
		opts:   o,
		logger: o.logger,
		conns:  make(map[string]*Controller),
	}
}

// Connect ensures a connection for key exists and returns its current
// snapshot. The first call for a key starts dialing in the background;
// later calls with an equal config return the live state. A call with
// a different config fails with ErrConfigMismatch; Dispose the key
// first to change its config.
func (b *Bridge) Connect(key string, cfg Config) (Snapshot, error) {
	cfg.Key = key
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return errorSnapshot(key, err), err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errorSnapshot(key, ErrBridgeClosed), ErrBridgeClosed
	}
	if ctrl, ok := b.conns[key]; ok {
		if !ctrl.Config().Equal(cfg) {
			return ctrl.Snapshot(), ErrConfigMismatch
		}
		return ctrl.Snapshot(), nil
	}
	ctrl := newController(cfg, b.opts)
	b.conns[key] = ctrl
	b.logger.Info("connection registered", "key", key, "url", cfg.URL)
	return ctrl.Snapshot(), nil
}

// Snapshot returns the state of the connection for key.
func (b *Bridge) Snapshot(key string) (Snapshot, error) {
	ctrl, err := b.controller(key)
	if err != nil {
		return errorSnapshot(key, err), err
	}
	return ctrl.Snapshot(), nil
}

// Send buffers payload on the connection for key. See Controller.Send.
func (b *Bridge) Send(key string, payload any) error {
	ctrl, err := b.controller(key)
	if err != nil {
		return err
	}
	return ctrl.Send(payload)
}

// SendRequest is Send with a caller-chosen request id. See
// Controller.SendRequest.
func (b *Bridge) SendRequest(key string, id uuid.UUID, payload any) error {
	ctrl, err := b.controller(key)
	if err != nil {
		return err
	}
	return ctrl.SendRequest(id, payload)
}

// IsOpen reports whether the connection for key is open. Unknown keys
// report false.
func (b *Bridge) IsOpen(key string) bool {
	ctrl, err := b.controller(key)
	if err != nil {
		return false
	}
	return ctrl.IsOpen()
}

// Dispose tears down the connection for key and forgets it. A later
// Connect with the same key starts fresh.
func (b *Bridge) Dispose(key string) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBridgeClosed
	}
	ctrl, ok := b.conns[key]
	if ok {
		delete(b.conns, key)
	}
	b.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	ctrl.Dispose()
	return nil
}

// Keys lists the registered connection keys in sorted order.
func (b *Bridge) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.conns))
	for key := range b.conns {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Close disposes every connection and rejects further use.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBridgeClosed
	}
	b.closed = true
	conns := b.conns
	b.conns = nil
	b.mu.Unlock()

	var wg sync.WaitGroup
	for _, ctrl := range conns {
		ctrl := ctrl
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctrl.Dispose()
		}()
	}
	wg.Wait()
	b.logger.Info("bridge closed", "connections", len(conns))
	return nil
}

func (b *Bridge) controller(key string) (*Controller, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrBridgeClosed
	}
	ctrl, ok := b.conns[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return ctrl, nil
}
