package fsm

import "github.com/bft-labs/stagehand/pkg/log"

// Option configures a Machine during construction.
type Option[K comparable, C any] func(*Machine[K, C])

// WithState registers the factory for kind.
func WithState[K comparable, C any](kind K, factory Factory[K, C]) Option[K, C] {
	return func(m *Machine[K, C]) {
		if factory != nil {
			m.factories[kind] = factory
		}
	}
}

// WithName sets the name used in log lines and transition events.
func WithName[K comparable, C any](name string) Option[K, C] {
	return func(m *Machine[K, C]) {
		m.name = name
	}
}

// WithLogger sets the logger. Transitions are logged at info level.
func WithLogger[K comparable, C any](logger log.Logger) Option[K, C] {
	return func(m *Machine[K, C]) {
		m.logger = log.OrNoop(logger)
	}
}

// WithEmitter registers a transition listener.
func WithEmitter[K comparable, C any](e Emitter[K]) Option[K, C] {
	return func(m *Machine[K, C]) {
		m.emitter = e
	}
}

// StateChange describes one applied transition.
type StateChange[K comparable] struct {
	Machine string
	From    K
	To      K
	// Initial is true for the first transition, when From is the zero value.
	Initial bool
}

// Emitter is notified after each applied transition, once the new state's
// OnEnter has returned.
type Emitter[K comparable] interface {
	OnStateChange(change StateChange[K])
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc[K comparable] func(change StateChange[K])

func (f EmitterFunc[K]) OnStateChange(change StateChange[K]) { f(change) }
