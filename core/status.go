package core

// Status is the lifecycle state of a session.
type Status int

const (
	// StatusIdle is the state before the first user input.
	StatusIdle Status = iota
	// StatusRunning accepts turns.
	StatusRunning
	// StatusCompleted is terminal: termination strategy or iteration ceiling.
	StatusCompleted
	// StatusAborted is terminal: an agent failed fatally.
	StatusAborted
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further turns can run.
func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusAborted }
