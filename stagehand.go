// Package stagehand plays scripted scenes on a cooperative tick loop.
//
// Example usage:
//
//	cfg := stagehand.DefaultConfig()
//	cfg.ScriptPath = "scenes/intro.toml"
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := stagehand.Run(context.Background(), cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// The building blocks live in their own packages: pkg/fsm for state
// machines, pkg/task for chained tasks and pkg/driver for the tick loop.
package stagehand

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/bft-labs/stagehand/internal/app"
	"github.com/bft-labs/stagehand/internal/cliconfig"
	"github.com/bft-labs/stagehand/pkg/driver"
	"github.com/bft-labs/stagehand/pkg/fsm"
	"github.com/bft-labs/stagehand/pkg/log"
	"github.com/bft-labs/stagehand/pkg/task"
)

// Config holds the configuration of a scene run.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = cliconfig.Config

// Result summarizes a finished run.
type Result = app.Result

// DefaultConfig returns a Config with sensible default values.
// ScriptPath must be set before calling Run.
func DefaultConfig() Config {
	return cliconfig.DefaultConfig()
}

// Run plays cfg.ScriptPath and blocks until the scene finishes, a step
// fails, the tick limit is reached, or ctx is cancelled. Spoken lines go
// to stdout and logs to stderr.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if err := validateModuleVersions(); err != nil {
		return Result{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	logger := log.NewZerologAdapterWithLogger(Logger(cfg))
	return app.Run(ctx, cfg, app.WithLogger(logger), app.WithOutput(os.Stdout))
}

// Logger returns the zerolog logger described by cfg's log level and
// format, writing to stderr.
func Logger(cfg Config) zerolog.Logger {
	return cliconfig.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
}

// validateModuleVersions checks that all module versions are compatible.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"fsm":    {fsm.Version, fsm.MinCompatibleVersion},
		"task":   {task.Version, task.MinCompatibleVersion},
		"driver": {driver.Version, driver.MinCompatibleVersion},
		"log":    {log.Version, log.MinCompatibleVersion},
	}

	for name, m := range modules {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}
	return nil
}

// isVersionCompatible reports whether version >= minVersion. Both are
// "major.minor.patch"; missing parts count as zero.
func isVersionCompatible(version, minVersion string) bool {
	v := parseVersion(version)
	m := parseVersion(minVersion)
	for i := range v {
		if v[i] != m[i] {
			return v[i] > m[i]
		}
	}
	return true
}

func parseVersion(s string) [3]int {
	var p [3]int
	_, _ = fmt.Sscanf(s, "%d.%d.%d", &p[0], &p[1], &p[2])
	return p
}
