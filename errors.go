package wsbridge

import (
	"errors"
	"fmt"
)

// Errors
var (
	// ErrInvalidConfig rejects a config at Connect time: bad URL scheme,
	// missing key, negative policy values. Never retried.
	ErrInvalidConfig = errors.New("invalid connection config")

	// ErrUnknownKey means no connection exists for the key.
	ErrUnknownKey = errors.New("unknown connection key")

	// ErrConfigMismatch means Connect was called for a live key with a
	// config that differs from the one the connection was created with.
	ErrConfigMismatch = errors.New("config differs from existing connection")

	// ErrDisposed means the controller has been disposed.
	ErrDisposed = errors.New("connection disposed")

	// ErrBridgeClosed means the bridge has been shut down.
	ErrBridgeClosed = errors.New("bridge closed")

	// ErrReconnectExhausted is the terminal error once the reconnect
	// attempt cap is reached. Test with errors.Is; snapshots expose it
	// through the Exhausted flag.
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
)

// exhaustedError wraps the last transport error in the terminal
// exhaustion error.
func exhaustedError(attempts int, last error) error {
	if last != nil {
		return fmt.Errorf("%w after %d attempts: %v", ErrReconnectExhausted, attempts, last)
	}
	return fmt.Errorf("%w after %d attempts", ErrReconnectExhausted, attempts)
}
