package driver

// Version information for the driver module.
const (
	Version              = "1.0.0"
	MinCompatibleVersion = "1.0.0"
)
