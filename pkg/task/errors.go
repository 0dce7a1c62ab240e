package task

import "errors"

var (
	// ErrNilTask is returned when submitting a nil chain root.
	ErrNilTask = errors.New("task: nil task")

	// ErrAlreadySubmitted is returned when a root is submitted twice. Then
	// panics with it when asked to link a submitted root as a successor.
	ErrAlreadySubmitted = errors.New("task: task already submitted")

	// ErrOwnedTask is returned when submitting a task that is another
	// task's successor. Submit the chain root instead. Then panics with it
	// when next already has a different predecessor.
	ErrOwnedTask = errors.New("task: task is owned by a predecessor")

	// ErrTerminalTask is returned when submitting a root that has already
	// finished.
	ErrTerminalTask = errors.New("task: task already finished")

	// ErrChainCycle is the panic value of a Then that would link a chain
	// back into itself.
	ErrChainCycle = errors.New("task: chain would contain a cycle")

	// ErrReentrantUpdate is the panic value of a Manager.Update called from
	// inside a task hook of the same manager.
	ErrReentrantUpdate = errors.New("task: re-entrant manager update")
)
