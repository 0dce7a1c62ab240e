package task

import (
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/stagehand/pkg/log"
)

// ChainID identifies a submitted chain.
type ChainID string

// ChainEvent describes a chain leaving the manager.
type ChainEvent struct {
	Manager string
	Chain   ChainID
	// Task is the head at the time the chain finished.
	Task   Task
	Status Status
	Err    error
	// Tick is the manager update count when the chain finished.
	Tick uint64
}

// Observer is notified whenever a chain is removed.
type Observer interface {
	OnChainFinished(event ChainEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(event ChainEvent)

func (f ObserverFunc) OnChainFinished(event ChainEvent) { f(event) }

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerName sets the name used in log lines and chain events.
func WithManagerName(name string) ManagerOption {
	return func(m *Manager) {
		m.name = name
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = log.OrNoop(logger)
	}
}

// WithObserver registers an observer for finished chains.
func WithObserver(o Observer) ManagerOption {
	return func(m *Manager) {
		m.observer = o
	}
}

type chain struct {
	id   ChainID
	head Task
	done bool
}

// Manager owns submitted chains and steps their heads once per Update.
type Manager struct {
	name     string
	logger   log.Logger
	observer Observer

	chains   []*chain
	updating bool
	ticks    uint64
}

// NewManager creates an empty manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		name:   "tasks",
		logger: log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the manager name.
func (m *Manager) Name() string { return m.name }

// Submit registers the chain starting at root. The root must not be
// another task's successor and must not have been submitted before.
//
// A chain submitted from inside a task hook is first stepped on the next
// Update.
func (m *Manager) Submit(root Task) (ChainID, error) {
	if root == nil {
		return "", ErrNilTask
	}
	b := root.base()
	if b.submitted {
		return "", ErrAlreadySubmitted
	}
	if b.owned {
		return "", ErrOwnedTask
	}
	if b.status.Terminal() {
		return "", ErrTerminalTask
	}
	b.submitted = true

	c := &chain{id: ChainID(uuid.NewString()), head: root}
	m.chains = append(m.chains, c)
	m.logger.Debug("chain submitted",
		log.String("manager", m.name),
		log.Chain(string(c.id)),
		log.String("task", root.Name()),
	)
	return c.id, nil
}

// Update steps the head of every live chain once, in submission order.
//
// A head that succeeds is replaced by its successor, which is first
// stepped on the next Update. A chain whose head succeeds without a
// successor, fails, or is aborted is removed.
//
// Update panics with ErrReentrantUpdate when called from inside one of its
// own task hooks.
func (m *Manager) Update(dt time.Duration) {
	if m.updating {
		panic(ErrReentrantUpdate)
	}
	m.updating = true
	defer func() {
		m.updating = false
		m.compact()
	}()
	m.ticks++

	n := len(m.chains)
	for i := 0; i < n; i++ {
		c := m.chains[i]
		if c.done {
			continue
		}
		status := Step(c.head, dt)
		if c.done {
			// aborted through the manager from its own hook
			continue
		}
		switch status {
		case Succeeded:
			if next := c.head.Next(); next != nil {
				c.head = next
				continue
			}
			m.finish(c, status)
		case Failed, Aborted:
			m.finish(c, status)
		}
	}
}

// Abort cancels the chain with id. Its head and every un-started successor
// become Aborted and the chain is removed. Abort returns false when no live
// chain has that id, including chains that already finished.
func (m *Manager) Abort(id ChainID) bool {
	c := m.find(id)
	if c == nil {
		return false
	}
	m.abort(c)
	if !m.updating {
		m.compact()
	}
	return true
}

// AbortAll cancels every live chain.
func (m *Manager) AbortAll() {
	for _, c := range m.chains {
		if !c.done {
			m.abort(c)
		}
	}
	if !m.updating {
		m.compact()
	}
}

func (m *Manager) abort(c *chain) {
	c.head.Abort()
	m.finish(c, c.head.Status())
}

// Len returns the number of live chains.
func (m *Manager) Len() int {
	n := 0
	for _, c := range m.chains {
		if !c.done {
			n++
		}
	}
	return n
}

// HasActiveChains reports whether at least one chain is live.
func (m *Manager) HasActiveChains() bool {
	return m.Len() > 0
}

// Chains returns the IDs of live chains in submission order.
func (m *Manager) Chains() []ChainID {
	ids := make([]ChainID, 0, len(m.chains))
	for _, c := range m.chains {
		if !c.done {
			ids = append(ids, c.id)
		}
	}
	return ids
}

// Head returns the task the chain will step next.
func (m *Manager) Head(id ChainID) (Task, bool) {
	c := m.find(id)
	if c == nil {
		return nil, false
	}
	return c.head, true
}

// Ticks returns how many times Update has run.
func (m *Manager) Ticks() uint64 { return m.ticks }

func (m *Manager) find(id ChainID) *chain {
	for _, c := range m.chains {
		if c.id == id && !c.done {
			return c
		}
	}
	return nil
}

func (m *Manager) finish(c *chain, status Status) {
	c.done = true

	fields := []log.Field{
		log.String("manager", m.name),
		log.Chain(string(c.id)),
		log.String("task", c.head.Name()),
		log.String("status", status.String()),
		log.Uint64("manager_tick", m.ticks),
	}
	if err := c.head.Err(); err != nil {
		m.logger.Warn("chain failed", append(fields, log.Err(err))...)
	} else {
		m.logger.Debug("chain finished", fields...)
	}

	if m.observer != nil {
		m.observer.OnChainFinished(ChainEvent{
			Manager: m.name,
			Chain:   c.id,
			Task:    c.head,
			Status:  status,
			Err:     c.head.Err(),
			Tick:    m.ticks,
		})
	}
}

// compact drops finished chains, keeping submission order.
func (m *Manager) compact() {
	live := m.chains[:0]
	for _, c := range m.chains {
		if !c.done {
			live = append(live, c)
		}
	}
	for i := len(live); i < len(m.chains); i++ {
		m.chains[i] = nil
	}
	m.chains = live
}
