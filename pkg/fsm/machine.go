package fsm

import (
	"fmt"
	"time"

	"github.com/bft-labs/stagehand/pkg/log"
)

// Machine drives the states of one context object.
type Machine[K comparable, C any] struct {
	name    string
	context C
	logger  log.Logger
	emitter Emitter[K]

	factories map[K]Factory[K, C]
	cache     map[K]State[K, C]
	order     []K // cache keys in creation order

	current     State[K, C]
	currentKind K
	hasCurrent  bool

	pending    K
	hasPending bool

	destroyed bool
}

// New creates a machine bound to ctx. The machine has no state until the
// first TransitionTo is applied by Update.
func New[K comparable, C any](ctx C, opts ...Option[K, C]) *Machine[K, C] {
	m := &Machine[K, C]{
		name:      "fsm",
		context:   ctx,
		logger:    log.NewNoopLogger(),
		factories: make(map[K]Factory[K, C]),
		cache:     make(map[K]State[K, C]),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the machine name.
func (m *Machine[K, C]) Name() string { return m.name }

// Context returns the object the machine drives.
func (m *Machine[K, C]) Context() C { return m.context }

// Register adds or replaces the factory for kind. Already cached instances
// are kept until evicted.
func (m *Machine[K, C]) Register(kind K, factory Factory[K, C]) error {
	if factory == nil {
		return ErrNilFactory
	}
	m.factories[kind] = factory
	return nil
}

// TransitionTo records kind as the pending transition, replacing any earlier
// request that has not been applied yet.
func (m *Machine[K, C]) TransitionTo(kind K) error {
	if m.destroyed {
		return ErrDestroyed
	}
	if _, ok := m.factories[kind]; !ok {
		return &UnknownStateError{Kind: fmt.Sprint(kind)}
	}
	if m.hasPending && m.pending != kind {
		m.logger.Debug("pending transition replaced",
			log.Machine(m.name),
			log.Any("was", m.pending),
			log.Any("now", kind),
		)
	}
	m.pending = kind
	m.hasPending = true
	return nil
}

// Update applies the pending transition, runs the current state's OnUpdate,
// and then applies any transition requested during that hook.
//
// Update panics with ErrNoState if no transition was ever requested, and
// with ErrDestroyed after Destroy.
func (m *Machine[K, C]) Update(dt time.Duration) {
	if m.destroyed {
		panic(ErrDestroyed)
	}
	if !m.hasCurrent && !m.hasPending {
		panic(fmt.Errorf("%w (machine %q)", ErrNoState, m.name))
	}

	m.resolve()
	if m.destroyed {
		return
	}
	m.current.OnUpdate(dt)
	if m.destroyed {
		return
	}
	m.resolve()
}

// resolve applies the pending request, if any. Pending is cleared before
// any hook runs so a request made from OnExit or OnEnter is kept for the
// next resolution instead of being lost.
func (m *Machine[K, C]) resolve() {
	if !m.hasPending {
		return
	}
	to := m.pending
	var zero K
	m.pending = zero
	m.hasPending = false

	from := m.currentKind
	initial := !m.hasCurrent

	if m.hasCurrent {
		m.current.OnExit()
		if m.destroyed {
			return
		}
	}

	next := m.instance(to)
	m.current = next
	m.currentKind = to
	m.hasCurrent = true
	next.OnEnter()

	m.logger.Info("state transition",
		log.Machine(m.name),
		log.Any("from", from),
		log.Any("to", to),
		log.Bool("initial", initial),
	)
	if m.emitter != nil {
		m.emitter.OnStateChange(StateChange[K]{
			Machine: m.name,
			From:    from,
			To:      to,
			Initial: initial,
		})
	}
}

// instance returns the cached state for kind, building it on first use.
func (m *Machine[K, C]) instance(kind K) State[K, C] {
	if s, ok := m.cache[kind]; ok {
		return s
	}
	factory, ok := m.factories[kind]
	if !ok {
		// TransitionTo validates kinds, so only a Register race could get here.
		panic(&UnknownStateError{Kind: fmt.Sprint(kind)})
	}
	s := factory()
	s.bind(m, kind)
	m.cache[kind] = s
	m.order = append(m.order, kind)
	s.Initialize()
	m.logger.Debug("state created", log.Machine(m.name), log.Any("kind", kind))
	return s
}

// Current returns the kind of the current state.
func (m *Machine[K, C]) Current() (K, bool) {
	return m.currentKind, m.hasCurrent
}

// CurrentState returns the current state instance, or nil.
func (m *Machine[K, C]) CurrentState() State[K, C] {
	return m.current
}

// Pending returns the requested kind that Update has not applied yet.
func (m *Machine[K, C]) Pending() (K, bool) {
	return m.pending, m.hasPending
}

// Is reports whether the machine is currently in kind.
func (m *Machine[K, C]) Is(kind K) bool {
	return m.hasCurrent && m.currentKind == kind
}

// Cached reports whether an instance for kind is held in the cache.
func (m *Machine[K, C]) Cached(kind K) bool {
	_, ok := m.cache[kind]
	return ok
}

// ResetCurrent re-runs the current state's OnEnter without leaving it.
// It does nothing before the first transition.
func (m *Machine[K, C]) ResetCurrent() {
	if m.destroyed || !m.hasCurrent {
		return
	}
	m.current.OnEnter()
}

// EndState evicts the cached instance for kind, calling its Cleanup. The
// next transition into kind builds a fresh instance.
func (m *Machine[K, C]) EndState(kind K) error {
	if m.destroyed {
		return ErrDestroyed
	}
	if m.hasCurrent && m.currentKind == kind {
		return ErrStateActive
	}
	m.evict(kind)
	return nil
}

// EndAllButCurrent evicts every cached state except the current one, in
// creation order.
func (m *Machine[K, C]) EndAllButCurrent() {
	if m.destroyed {
		return
	}
	for _, kind := range append([]K(nil), m.order...) {
		if m.hasCurrent && kind == m.currentKind {
			continue
		}
		m.evict(kind)
	}
}

func (m *Machine[K, C]) evict(kind K) {
	s, ok := m.cache[kind]
	if !ok {
		return
	}
	s.Cleanup()
	delete(m.cache, kind)
	for i, k := range m.order {
		if k == kind {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.logger.Debug("state ended", log.Machine(m.name), log.Any("kind", kind))
}

// Destroy exits the current state, cleans up every cached state and
// retires the machine. Later Update calls panic; other calls are no-ops or
// return ErrDestroyed.
func (m *Machine[K, C]) Destroy() {
	if m.destroyed {
		return
	}
	if m.hasCurrent {
		m.current.OnExit()
	}
	// Cleanup may end other states, so walk a copy and skip evicted kinds.
	for _, kind := range append([]K(nil), m.order...) {
		if s, ok := m.cache[kind]; ok {
			s.Cleanup()
		}
	}
	m.cache = make(map[K]State[K, C])
	m.order = nil
	m.current = nil
	m.hasCurrent = false
	var zero K
	m.currentKind = zero
	m.pending = zero
	m.hasPending = false
	m.destroyed = true
	m.logger.Debug("machine destroyed", log.Machine(m.name))
}

// Destroyed reports whether Destroy has been called.
func (m *Machine[K, C]) Destroyed() bool {
	return m.destroyed
}
