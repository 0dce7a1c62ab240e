package driver

import (
	"time"

	"github.com/bft-labs/stagehand/pkg/log"
)

// Option configures optional behavior of a Driver.
type Option func(*options)

type options struct {
	logger       log.Logger
	eventHandler EventHandler
	stopWhen     []func() bool
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = log.OrNoop(logger)
	}
}

// WithEventHandler sets a handler for driver events.
// Tick events are called synchronously from the tick goroutine.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithStopWhen adds a condition checked on the tick goroutine after every
// tick of a running loop. The loop stops once any condition returns true.
func WithStopWhen(cond func() bool) Option {
	return func(o *options) {
		if cond != nil {
			o.stopWhen = append(o.stopWhen, cond)
		}
	}
}

// EventHandler receives driver events.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnTick(event TickEvent)
}

// StateChangeEvent describes a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// TickEvent describes one completed tick.
type TickEvent struct {
	Tick uint64
	// Delta is the dt passed to updaters.
	Delta time.Duration
	// Duration is how long the tick took to run.
	Duration time.Duration
}

// eventEmitterWrapper adapts EventHandler to the lifecycle emitter.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: previous,
		Current:  current,
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnTick(event TickEvent) {
	if e.handler == nil {
		return
	}
	e.handler.OnTick(event)
}
