package session

// State is the lifecycle state of a Session.
type State int32

const (
	// StateIdle is the state of a Session that has not been run.
	StateIdle State = iota

	// StateStreaming is entered when Run starts and lasts until the stream
	// ends one way or the other.
	StateStreaming

	// StateCompleted is terminal: the stream ended cleanly and the
	// assistant message was kept.
	StateCompleted

	// StateFailed is terminal: the stream failed or was cancelled and the
	// assistant placeholder was removed.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is Completed or Failed.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}
