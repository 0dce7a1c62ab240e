package task

import "time"

// Task is one unit of work in a chain.
//
// Implementations embed Base, which tracks status and the successor link,
// and override the hooks they need:
//
//   - Begin runs once, on the first step.
//   - Poll runs on every step, the first one included, and reports whether
//     the task is done.
//   - Complete runs once, in the step Poll first reports done.
type Task interface {
	Name() string
	Status() Status
	Err() error

	// Then makes next the successor of this task and returns next, so calls
	// can be chained. Calling Then again replaces the successor.
	//
	// A task belongs to one chain. Then panics when next was submitted as
	// a root, already follows another task, or would close a cycle.
	Then(next Task) Task
	Next() Task

	// Abort cancels the task and every successor that has not started.
	// It does nothing once the task is terminal.
	Abort()

	Begin()
	Poll(dt time.Duration) bool
	Complete()

	base() *Base
}

// Option configures a task built by one of the constructors.
type Option func(*Base)

// WithName sets the name used in log lines and chain events.
func WithName(name string) Option {
	return func(b *Base) {
		b.name = name
	}
}

// OnComplete registers fn to run once when the task succeeds, after the
// task's own Complete hook.
func OnComplete(fn func()) Option {
	return func(b *Base) {
		b.onComplete = fn
	}
}

// Base holds the state shared by every task.
type Base struct {
	name       string
	status     Status
	err        error
	next       Task
	onComplete func()

	// owned is set while the task is some predecessor's successor.
	owned     bool
	submitted bool
}

func newBase(name string, opts []Option) Base {
	b := Base{name: name}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *Base) base() *Base { return b }

// Name returns the task name.
func (b *Base) Name() string { return b.name }

// SetName changes the task name.
func (b *Base) SetName(name string) { b.name = name }

// Status returns the current status.
func (b *Base) Status() Status { return b.status }

// Err returns the error the task failed with, if any.
func (b *Base) Err() error { return b.err }

func (b *Base) Then(next Task) Task {
	if next != nil && next != b.next {
		nb := next.base()
		switch {
		case nb.submitted:
			panic(ErrAlreadySubmitted)
		case nb.owned:
			panic(ErrOwnedTask)
		}
		for t := next; t != nil; t = t.Next() {
			if t.base() == b {
				panic(ErrChainCycle)
			}
		}
	}
	if b.next != nil && b.next != next {
		b.next.base().owned = false
	}
	b.next = next
	if next != nil {
		next.base().owned = true
	}
	return next
}

func (b *Base) Next() Task { return b.next }

func (b *Base) Abort() {
	if b.status.Terminal() {
		return
	}
	b.status = Aborted
	b.abortSuccessors()
}

// Fail stops the task with err and aborts its successors. It does nothing
// once the task is terminal.
func (b *Base) Fail(err error) {
	if b.status.Terminal() {
		return
	}
	b.status = Failed
	b.err = err
	b.abortSuccessors()
}

func (b *Base) abortSuccessors() {
	for t := b.next; t != nil; t = t.Next() {
		sb := t.base()
		if sb.status != Pending {
			return
		}
		sb.status = Aborted
	}
}

// Begin does nothing.
func (b *Base) Begin() {}

// Poll reports done immediately.
func (b *Base) Poll(dt time.Duration) bool { return true }

// Complete does nothing.
func (b *Base) Complete() {}

// Step advances t by one logical step and returns its status afterwards.
//
// A Pending task becomes Running and runs Begin. A Running task is polled;
// when Poll reports done the task becomes Succeeded and its completion hooks
// run. Terminal tasks are left untouched, so stale steps are harmless.
func Step(t Task, dt time.Duration) Status {
	b := t.base()
	if b.status.Terminal() {
		return b.status
	}
	if b.status == Pending {
		b.status = Running
		t.Begin()
		if b.status.Terminal() {
			return b.status
		}
	}
	if !t.Poll(dt) || b.status.Terminal() {
		return b.status
	}
	b.status = Succeeded
	t.Complete()
	if b.onComplete != nil {
		b.onComplete()
	}
	return b.status
}

// Chain links tasks in order and returns the first, or nil when none are
// given. Nil entries are skipped.
func Chain(tasks ...Task) Task {
	var head, tail Task
	for _, t := range tasks {
		if t == nil {
			continue
		}
		if head == nil {
			head = t
		} else {
			tail.Then(t)
		}
		tail = t
	}
	return head
}
