package task

import "time"

// Action runs a function and succeeds on its first step.
type Action struct {
	Base
	fn func()
}

// NewAction creates an Action. A nil fn makes a task that only marks a point
// in the chain.
func NewAction(fn func(), opts ...Option) *Action {
	return &Action{Base: newBase("action", opts), fn: fn}
}

func (a *Action) Begin() {
	if a.fn != nil {
		a.fn()
	}
}

// Delegate runs an entry function on its first step and succeeds on the
// first step its predicate returns true.
type Delegate struct {
	Base
	enter func()
	done  func() bool
}

// NewDelegate creates a Delegate. A nil predicate is treated as always true.
func NewDelegate(enter func(), done func() bool, opts ...Option) *Delegate {
	return &Delegate{Base: newBase("delegate", opts), enter: enter, done: done}
}

func (d *Delegate) Begin() {
	if d.enter != nil {
		d.enter()
	}
}

func (d *Delegate) Poll(time.Duration) bool {
	return d.done == nil || d.done()
}

// Wait succeeds once the dt passed to its steps adds up to its duration.
type Wait struct {
	Base
	duration time.Duration
	elapsed  time.Duration
}

// NewWait creates a Wait for d. A zero or negative d completes on the first
// step.
func NewWait(d time.Duration, opts ...Option) *Wait {
	return &Wait{Base: newBase("wait", opts), duration: d}
}

func (w *Wait) Begin() {
	w.elapsed = 0
}

func (w *Wait) Poll(dt time.Duration) bool {
	w.elapsed += dt
	return w.elapsed >= w.duration
}

// Duration returns the configured duration.
func (w *Wait) Duration() time.Duration { return w.duration }

// Elapsed returns the time accumulated so far.
func (w *Wait) Elapsed() time.Duration { return w.elapsed }

// PollFunc is called by a Poll task on every step.
type PollFunc func(dt time.Duration) (bool, error)

// Poll calls a function on every step. It succeeds when the function
// reports done and fails when it returns an error.
type Poll struct {
	Base
	fn PollFunc
}

// NewPoll creates a Poll task. A nil fn completes on the first step.
func NewPoll(fn PollFunc, opts ...Option) *Poll {
	return &Poll{Base: newBase("poll", opts), fn: fn}
}

func (p *Poll) Poll(dt time.Duration) bool {
	if p.fn == nil {
		return true
	}
	done, err := p.fn(dt)
	if err != nil {
		p.Fail(err)
		return false
	}
	return done
}
