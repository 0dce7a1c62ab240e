package task

// Status is the progress of a single task.
type Status int

const (
	// Pending tasks have not been stepped yet.
	Pending Status = iota
	// Running tasks have begun and are polled every step.
	Running
	// Succeeded tasks completed normally.
	Succeeded
	// Failed tasks stopped with an error.
	Failed
	// Aborted tasks were cancelled before completing.
	Aborted
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible from s.
func (s Status) Terminal() bool {
	return s == Succeeded || s == Failed || s == Aborted
}
