// Package scene runs data-driven cutscenes on top of the fsm and task
// packages.
//
// A script names a set of states and, for each, an ordered list of steps:
//
//	name = "intro"
//	initial = "door"
//
//	[[states]]
//	name = "door"
//	steps = [
//	  { kind = "say", text = "Knock knock." },
//	  { kind = "wait", duration = "1s" },
//	  { kind = "await", key = "door", value = "open", timeout = "10s" },
//	  { kind = "goto", target = "hall" },
//	]
//
//	[[states]]
//	name = "hall"
//	final = true
//	steps = [{ kind = "say", text = "Come in." }]
//
// A Director is the state machine's context. Entering a state submits its
// steps as one task chain; leaving aborts whatever is left of it. A goto
// step requests a transition that the next Update applies.
package scene
