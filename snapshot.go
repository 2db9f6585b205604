package wsbridge

// Snapshot is an immutable view of one connection's state. Hosts poll
// it; reading never mutates the connection.
type Snapshot struct {
	// Key identifies the logical connection.
	Key string

	// State is the lifecycle phase.
	State Phase

	// ReadyState mirrors State numerically (0/1/2/3).
	ReadyState int

	// LastMessage is the most recently received payload, nil until the
	// first receive.
	LastMessage *Message

	// Error describes the last transport failure. Empty after a
	// successful open.
	Error string

	// Attempt counts reconnect attempts since the last successful open.
	Attempt int

	// Exhausted is true once the reconnect attempt cap is reached. The
	// phase is then pinned to Errored.
	Exhausted bool
}

// IsOpen reports whether the connection is usable for immediate sends.
func (s Snapshot) IsOpen() bool {
	return s.State == PhaseOpen
}

// errorSnapshot is the snapshot shape returned alongside synchronous
// errors, so hosts that render unconditionally still show something
// sensible.
func errorSnapshot(key string, err error) Snapshot {
	return Snapshot{
		Key:        key,
		State:      PhaseErrored,
		ReadyState: PhaseErrored.ReadyState(),
		Error:      err.Error(),
	}
}
