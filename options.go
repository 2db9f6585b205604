package wsbridge

import (
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wsbridge/wsbridge/internal/metrics"
)

// Option configures a Bridge or Controller.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	clock   clock.Clock
	metrics *metrics.Registry
	dial    dialFunc
}

func defaultOptions() options {
	return options{
		logger: slog.Default(),
		clock:  clock.New(),
		dial:   dialSocket,
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock sets the clock used for reconnect timers. Defaults to the
// wall clock; tests inject a mock to drive timers deterministically.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithMetrics registers Prometheus collectors on reg and records
// connection activity against them. Without this option no metrics are
// collected.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.metrics = metrics.New(reg)
	}
}

// withDialer overrides the transport constructor. Test hook.
func withDialer(dial dialFunc) Option {
	return func(o *options) {
		if dial != nil {
			o.dial = dial
		}
	}
}
