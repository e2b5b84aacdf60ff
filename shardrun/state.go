package shardrun

// State is the phase of a Controller.
type State int

// States ...
const (
	StateIdle State = iota
	StateAttemptRunning
	StateDeciding
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAttemptRunning:
		return "attempt running"
	case StateDeciding:
		return "deciding"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
