// Package log provides the logging abstraction used by stagehand components.
//
// The fsm, task and driver packages never import a logging library
// directly. They accept a Logger and default to a no-op implementation so
// that a tick loop running at 60Hz stays silent unless the caller opts in.
//
// # Usage
//
// Wrap an existing zerolog logger:
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//	machine := fsm.New[Mode](player, fsm.WithLogger[Mode, *Player](logger))
//
// Attach fields that every line from a component should carry:
//
//	camLog := log.With(logger, log.Machine("camera"))
//
// # Custom Loggers
//
// Any type with Debug, Info, Warn and Error methods taking a message and
// variadic Fields satisfies Logger.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package log
