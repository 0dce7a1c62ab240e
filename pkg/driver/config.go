package driver

import (
	"fmt"
	"time"
)

// Default values applied by SetDefaults.
const (
	DefaultTickInterval    = time.Second / 60
	DefaultShutdownTimeout = 5 * time.Second
)

// Config controls the tick loop.
type Config struct {
	// TickInterval is the wall-clock time between ticks.
	TickInterval time.Duration

	// FixedStep is the dt passed to updaters. Zero passes the measured
	// time since the previous tick instead.
	FixedStep time.Duration

	// MaxTicks stops the loop once the driver has run that many ticks in
	// total, manual Tick calls included. Zero means unbounded.
	MaxTicks uint64

	// ShutdownTimeout bounds how long Stop waits for the loop to exit.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config ticking at 60Hz with measured dt.
func DefaultConfig() Config {
	return Config{
		TickInterval:    DefaultTickInterval,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// SetDefaults fills zero fields with their defaults.
func (c *Config) SetDefaults() {
	if c.TickInterval == 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive, got %s", ErrInvalidConfig, c.TickInterval)
	}
	if c.FixedStep < 0 {
		return fmt.Errorf("%w: fixed step must not be negative, got %s", ErrInvalidConfig, c.FixedStep)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive, got %s", ErrInvalidConfig, c.ShutdownTimeout)
	}
	return nil
}
