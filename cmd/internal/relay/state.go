package relay

// State is the lifecycle of a relay session. Transitions only move forward.
type State int32

const (
	StatePending State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Cause records what ended a session. The first cause wins.
type Cause string

const (
	CauseNone          Cause = ""
	CauseDialFailed    Cause = "dial_failed"
	CauseBackendError  Cause = "backend_error"
	CauseBackendClosed Cause = "backend_closed"
	CauseClientClosed  Cause = "client_closed"
	CauseClientError   Cause = "client_error"
	CauseShutdown      Cause = "shutdown"
)
