// Package driver runs the per-tick loop that fsm machines and task
// managers expect.
//
// A Driver owns one goroutine. On every tick it first runs functions handed
// to it with Post, in the order they were posted, then calls each
// registered Updater with the tick's dt, in registration order. Machines and
// managers carry no locks, so everything that touches them must happen on
// that goroutine; Post is the way in from others.
//
// # Usage
//
//	d, err := driver.New(driver.Config{TickInterval: 16 * time.Millisecond})
//	if err != nil {
//	    return err
//	}
//	_ = d.Add("hero", heroMachine)
//	_ = d.Add("tasks", taskManager)
//
//	if err := d.Start(ctx); err != nil {
//	    return err
//	}
//	defer d.Stop()
//
// Tests and hosts with their own loop call Tick directly instead.
//
// # Lifecycle
//
// Valid state transitions:
//   - Stopped -> Starting
//   - Starting -> Running, Stopping, Crashed
//   - Running -> Stopping, Crashed
//   - Stopping -> Stopped, Crashed
//   - Crashed -> Starting
//
// A panic inside a posted function or an updater ends the loop, moves the
// driver to Crashed and is reported by Err as a *PanicError.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package driver
