package task

// Version information for the task module.
const (
	Version              = "1.0.0"
	MinCompatibleVersion = "1.0.0"
)
