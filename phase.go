package wsbridge

import "fmt"

// Phase is the lifecycle position of a connection.
type Phase int

const (
	// PhaseConnecting means a transport dial is in flight.
	PhaseConnecting Phase = iota

	// PhaseOpen means the transport is established and writable.
	PhaseOpen

	// PhaseClosing means a host-initiated shutdown is in progress.
	PhaseClosing

	// PhaseClosed means the transport is gone.
	PhaseClosed

	// PhaseErrored means the last transport attempt failed.
	PhaseErrored
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "Connecting"
	case PhaseOpen:
		return "Open"
	case PhaseClosing:
		return "Closing"
	case PhaseClosed:
		return "Closed"
	case PhaseErrored:
		return "Errored"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// ReadyState returns the numeric state hosts expect: 0 connecting,
// 1 open, 2 closing, 3 closed. Errored reports 3.
func (p Phase) ReadyState() int {
	switch p {
	case PhaseConnecting:
		return 0
	case PhaseOpen:
		return 1
	case PhaseClosing:
		return 2
	default:
		return 3
	}
}
