package trader

// State is the externally observable condition of the trading loop.
type State int32

const (
	// StateIdle: polling the store, no active session.
	StateIdle State = iota
	// StateRunning: an active session is being executed.
	StateRunning
	// StateFaulted: terminal; no session row has ever been created, so the
	// loop has nothing to poll for and has exited.
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}
