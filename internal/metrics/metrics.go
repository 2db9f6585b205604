package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles the collectors recorded by connection controllers.
type Registry struct {
	ConnectsTotal     *prometheus.CounterVec
	ReconnectsTotal   *prometheus.CounterVec
	MessagesReceived  *prometheus.CounterVec
	MessagesSent      *prometheus.CounterVec
	ActiveConnections prometheus.Gauge
	DialDuration      prometheus.Histogram
}

// New builds the collectors and registers them on reg. A nil reg uses
// the default registerer.
func New(reg prometheus.Registerer) *Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Registry{
		ConnectsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wsbridge_connects_total",
			Help: "Connection attempts by outcome.",
		}, []string{"key", "result"}),
		ReconnectsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wsbridge_reconnects_total",
			Help: "Reconnect attempts per connection key.",
		}, []string{"key"}),
		MessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wsbridge_messages_received_total",
			Help: "Messages received per connection key.",
		}, []string{"key"}),
		MessagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wsbridge_messages_sent_total",
			Help: "Messages sent per connection key.",
		}, []string{"key"}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wsbridge_active_connections",
			Help: "Connections currently managed.",
		}),
		DialDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wsbridge_dial_duration_seconds",
			Help:    "Time from dial start to open.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
	reg.MustRegister(
		r.ConnectsTotal,
		r.ReconnectsTotal,
		r.MessagesReceived,
		r.MessagesSent,
		r.ActiveConnections,
		r.DialDuration,
	)
	return r
}

// RecordOpen counts a successful open and observes the dial latency.
func (r *Registry) RecordOpen(key string, dialTime time.Duration) {
	if r == nil {
		return
	}
	r.ConnectsTotal.WithLabelValues(key, "open").Inc()
	r.DialDuration.Observe(dialTime.Seconds())
}

// RecordFailure counts a failed connection.
func (r *Registry) RecordFailure(key string) {
	if r == nil {
		return
	}
	r.ConnectsTotal.WithLabelValues(key, "failure").Inc()
}

// RecordReconnect counts a reconnect attempt.
func (r *Registry) RecordReconnect(key string) {
	if r == nil {
		return
	}
	r.ReconnectsTotal.WithLabelValues(key).Inc()
}

// RecordReceived counts an inbound message.
func (r *Registry) RecordReceived(key string) {
	if r == nil {
		return
	}
	r.MessagesReceived.WithLabelValues(key).Inc()
}

// RecordSent counts an outbound message.
func (r *Registry) RecordSent(key string) {
	if r == nil {
		return
	}
	r.MessagesSent.WithLabelValues(key).Inc()
}

// ControllerCreated bumps the active connection gauge.
func (r *Registry) ControllerCreated() {
	if r == nil {
		return
	}
	r.ActiveConnections.Inc()
}

// ControllerDisposed drops the active connection gauge.
func (r *Registry) ControllerDisposed() {
	if r == nil {
		return
	}
	r.ActiveConnections.Dec()
}
