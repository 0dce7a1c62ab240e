package fsm

import (
	"errors"
	"fmt"
)

var (
	// ErrNoState is the panic value of Update on a machine that was never
	// given a startup transition.
	ErrNoState = errors.New("fsm: update called with no current or pending state")

	// ErrDestroyed is returned (or panicked with, from Update) once a machine has been destroyed.
	ErrDestroyed = errors.New("fsm: machine destroyed")

	// ErrStateActive is returned when evicting the state the machine is currently in.
	ErrStateActive = errors.New("fsm: cannot end the current state")

	// ErrNilFactory is returned when registering a nil factory.
	ErrNilFactory = errors.New("fsm: nil state factory")
)

// UnknownStateError indicates a transition to a kind with no registered factory.
type UnknownStateError struct {
	Kind string
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("fsm: no state registered for kind '%s'", e.Kind)
}

// IsUnknownStateError reports whether err is an *UnknownStateError.
func IsUnknownStateError(err error) bool {
	var e *UnknownStateError
	return errors.As(err, &e)
}
