// Package app wires a script, its director, the tick driver and the
// optional watcher and admin server into one run.
package app
