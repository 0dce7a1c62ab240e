// Package task provides chainable units of cooperative, tick-driven work and
// a Manager that advances independent chains one logical step per tick.
//
// A task moves through Pending, Running and then exactly one terminal
// status: Succeeded, Failed or Aborted. The first Step runs the task's
// Begin hook and makes it Running; every Step polls it until it reports
// completion, at which point it becomes Succeeded and its Complete hook
// runs once. Stepping a terminal task does nothing.
//
// Tasks are linked with Then:
//
//	root := task.NewAction(openDoor)
//	root.Then(task.NewWait(2 * time.Second)).
//	    Then(task.NewDelegate(walkIn, arrived))
//
//	id, err := manager.Submit(root)
//
// Once submitted, the Manager owns the chain. Each Manager.Update steps
// every live chain's head once, in submission order. A successor is never
// stepped in the tick its predecessor completed in. A chain whose head is
// aborted or fails is removed, and the remaining successors are marked
// Aborted without running.
//
// # Variants
//
//   - Action runs a function and succeeds on its first step.
//   - Delegate runs an entry function, then succeeds on the first step its
//     predicate holds (the first step included).
//   - Wait accumulates dt from its first step and succeeds once the total
//     reaches its duration.
//   - Poll calls a function every step and fails if it returns an error.
//
// Custom tasks embed Base and override Begin, Poll and Complete.
//
// # Concurrency
//
// Tasks and Managers are not safe for concurrent use. Aborts are
// cooperative and take effect the next time the chain is polled.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package task
