package fsm

import "time"

// State is one behavioural mode of a Machine's context.
//
// Implementations embed Base, which binds the state to its machine and
// supplies no-op hooks, then override the hooks they need.
type State[K comparable, C any] interface {
	// Initialize runs once, right after the factory builds the state.
	Initialize()
	// OnEnter runs each time the machine enters the state, and on ResetCurrent.
	OnEnter()
	// OnUpdate runs once per Update while the state is current.
	OnUpdate(dt time.Duration)
	// OnExit runs when the machine leaves the state.
	OnExit()
	// Cleanup runs when the state is evicted from the cache.
	Cleanup()

	bind(m *Machine[K, C], kind K)
}

// Factory builds a fresh State instance for one kind.
type Factory[K comparable, C any] func() State[K, C]

// Base is embedded by every State implementation.
type Base[K comparable, C any] struct {
	machine *Machine[K, C]
	kind    K
}

func (b *Base[K, C]) bind(m *Machine[K, C], kind K) {
	b.machine = m
	b.kind = kind
}

// Machine returns the machine that owns the state.
func (b *Base[K, C]) Machine() *Machine[K, C] { return b.machine }

// Context returns the owning machine's context.
func (b *Base[K, C]) Context() C { return b.machine.Context() }

// Kind returns the key the state is cached under.
func (b *Base[K, C]) Kind() K { return b.kind }

// TransitionTo requests a transition on the owning machine.
func (b *Base[K, C]) TransitionTo(kind K) error { return b.machine.TransitionTo(kind) }

func (b *Base[K, C]) Initialize()               {}
func (b *Base[K, C]) OnEnter()                  {}
func (b *Base[K, C]) OnUpdate(dt time.Duration) {}
func (b *Base[K, C]) OnExit()                   {}
func (b *Base[K, C]) Cleanup()                  {}

// FuncState adapts plain functions to State. Nil hooks are skipped.
type FuncState[K comparable, C any] struct {
	Base[K, C]

	Enter  func(m *Machine[K, C])
	Update func(m *Machine[K, C], dt time.Duration)
	Exit   func(m *Machine[K, C])
}

func (f *FuncState[K, C]) OnEnter() {
	if f.Enter != nil {
		f.Enter(f.Machine())
	}
}

func (f *FuncState[K, C]) OnUpdate(dt time.Duration) {
	if f.Update != nil {
		f.Update(f.Machine(), dt)
	}
}

func (f *FuncState[K, C]) OnExit() {
	if f.Exit != nil {
		f.Exit(f.Machine())
	}
}
