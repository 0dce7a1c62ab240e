package cliconfig

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is the prefix of every environment variable stagehand reads.
const EnvPrefix = "STAGEHAND_"

// EnvConfig lists the STAGEHAND_* variables. Durations stay strings so they
// parse with the same rules and errors as the config file.
type EnvConfig struct {
	Script          string `env:"SCRIPT"`
	Tick            string `env:"TICK"`
	Step            string `env:"STEP"`
	MaxTicks        int    `env:"MAX_TICKS"`
	ShutdownTimeout string `env:"SHUTDOWN_TIMEOUT"`
	Watch           *bool  `env:"WATCH"`
	WatchDebounce   string `env:"WATCH_DEBOUNCE"`
	MetricsAddr     string `env:"METRICS_ADDR"`
	StatusDir       string `env:"STATUS_DIR"`
	LogLevel        string `env:"LOG_LEVEL"`
	LogFormat       string `env:"LOG_FORMAT"`
}

// LoadDotEnv loads variables from the given .env files (".env" when none
// are given) without overriding variables already set. Missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnvConfig applies configuration from environment variables (STAGEHAND_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	var ec EnvConfig
	if err := env.ParseWithOptions(&ec, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	s := newConfigSetter(changed)

	s.setString("script", ec.Script, &cfg.ScriptPath)
	s.setString("metrics-addr", ec.MetricsAddr, &cfg.MetricsAddr)
	s.setString("status-dir", ec.StatusDir, &cfg.StatusDir)
	s.setString("log-level", ec.LogLevel, &cfg.LogLevel)
	s.setString("log-format", ec.LogFormat, &cfg.LogFormat)

	if err := s.setDuration("tick", ec.Tick, &cfg.TickInterval); err != nil {
		return err
	}
	if err := s.setDuration("step", ec.Step, &cfg.FixedStep); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", ec.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}
	if err := s.setDuration("watch-debounce", ec.WatchDebounce, &cfg.WatchDebounce); err != nil {
		return err
	}

	s.setInt("max-ticks", ec.MaxTicks, &cfg.MaxTicks)
	s.setBool("watch", ec.Watch, &cfg.Watch)

	return nil
}
