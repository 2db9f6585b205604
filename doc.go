// Package wsbridge manages client-side WebSocket connections for hosts
// that poll state instead of handling events.
//
// The Bridge keeps one Controller per caller-supplied key. A Controller
// owns the full transport lifecycle: it dials, tracks open/close/error
// transitions, reconnects after failures at a fixed interval up to a
// configured attempt cap, and holds at most one pending outbound payload
// for delivery on the next open. Every state change is captured in an
// immutable Snapshot.
//
// Hosts call Connect to create or look up a connection, Snapshot and
// IsOpen to poll it, Send to queue a payload, and Dispose to tear it
// down. No call blocks on network I/O.
package wsbridge
