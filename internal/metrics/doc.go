// Package metrics provides Prometheus collectors for connection
// monitoring.
//
// Key metrics:
//   - Connection opens, failures and reconnect attempts per key
//   - Messages sent and received per key
//   - Active connection count
//   - Dial latency
//
// A nil *Registry is valid and records nothing, so callers never need
// to guard metric calls.
package metrics
