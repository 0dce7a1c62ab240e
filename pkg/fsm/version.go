package fsm

// Version information for the fsm module.
const (
	Version              = "1.0.0"
	MinCompatibleVersion = "1.0.0"
)
