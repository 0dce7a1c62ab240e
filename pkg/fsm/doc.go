// Package fsm provides a tick-driven finite state machine for modelling the
// mutually exclusive behavioural modes of an owning object.
//
// A Machine is parameterised over a state kind K (usually a small string or
// int enum) and a context C, the object whose behaviour the states describe.
// States are created lazily from a factory registry the first time the
// machine enters their kind, cached, and reused on every later entry, so any
// fields a state mutates survive until the state is explicitly evicted.
//
// # Usage
//
//	type Mode string
//
//	type walking struct{ fsm.Base[Mode, *Player] }
//
//	func (w *walking) OnUpdate(dt time.Duration) {
//	    if w.Context().Jumped {
//	        w.TransitionTo("airborne")
//	    }
//	}
//
//	m := fsm.New[Mode](player,
//	    fsm.WithState[Mode, *Player]("walking", func() fsm.State[Mode, *Player] { return &walking{} }),
//	    fsm.WithState[Mode, *Player]("airborne", func() fsm.State[Mode, *Player] { return &airborne{} }),
//	)
//	_ = m.TransitionTo("walking")
//
//	// once per tick, from the driver
//	m.Update(dt)
//
// # Transition Semantics
//
// TransitionTo only records a pending request; the last request before the
// next Update wins. Update applies the pending request, runs the current
// state's OnUpdate, then applies any request made during that hook before
// returning. The current state never changes while a hook is running.
//
// Calling Update before any TransitionTo is a programming error and panics
// with ErrNoState.
//
// # Concurrency
//
// A Machine is not safe for concurrent use. All calls must happen on the
// goroutine that ticks it.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package fsm
