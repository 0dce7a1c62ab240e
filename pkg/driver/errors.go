package driver

import (
	"errors"
	"fmt"
)

// Common driver errors.
var (
	ErrNotRunning      = errors.New("driver: not running")
	ErrAlreadyRunning  = errors.New("driver: already running")
	ErrShutdownTimeout = errors.New("driver: shutdown timeout")
	ErrNilUpdater      = errors.New("driver: nil updater")
	ErrDuplicateName   = errors.New("driver: updater name already registered")
	ErrInvalidConfig   = errors.New("driver: invalid config")
)

// PanicError records a panic raised while ticking.
type PanicError struct {
	// Updater is the name of the updater that panicked, or "post" for a
	// posted function.
	Updater string
	Tick    uint64
	Value   any
	Stack   []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("driver: %s panicked at tick %d: %v", e.Updater, e.Tick, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// IsPanicError reports whether err is a *PanicError.
func IsPanicError(err error) bool {
	var e *PanicError
	return errors.As(err, &e)
}
