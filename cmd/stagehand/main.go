package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/stagehand/internal/app"
	"github.com/bft-labs/stagehand/internal/cliconfig"
	"github.com/bft-labs/stagehand/internal/scene"
	"github.com/bft-labs/stagehand/internal/status"
	"github.com/bft-labs/stagehand/pkg/log"
)

const longHelp = `Play scripted scenes on a cooperative tick loop.

A scene is a TOML or YAML script of states. Entering a state runs its steps
(say, wait, set, await, goto) one after another, one tick at a time, until
the scene reaches a final state.

Configuration is read from $HOME/.stagehand/config.toml, then STAGEHAND_*
environment variables (and a .env file), then flags.`

var exampleUsage = strings.TrimSpace(`
  stagehand run scenes/intro.toml
  stagehand run scenes/intro.toml --step 16ms --max-ticks 600
  stagehand run scenes/intro.yaml --watch --metrics-addr :9090
  stagehand validate scenes/intro.toml
  stagehand status /var/lib/stagehand
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	root := &cobra.Command{
		Use:           "stagehand",
		Short:         "Play scripted scenes on a cooperative tick loop",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newValidateCmd(), newStatusCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "stagehand:", err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "run [script]",
		Short: "Play a scene until it reaches a final state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
			if len(args) == 1 {
				cfg.ScriptPath = args[0]
				changed["script"] = true
			}

			if err := loadConfig(&cfg, cfgPath, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			zl := cliconfig.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			zl.Debug().Interface("config", cfg).Msg("configuration")
			logger := log.NewZerologAdapterWithLogger(zl)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			res, err := app.Run(ctx, cfg, app.WithLogger(logger), app.WithOutput(cmd.OutOrStdout()))
			if ctx.Err() != nil {
				zl.Info().Msg("received signal, stopped")
			}
			if err != nil {
				return err
			}
			if !res.Finished && !cfg.Watch && ctx.Err() == nil {
				zl.Warn().Str("state", res.Final).Uint64("ticks", res.Ticks).Msg("scene stopped before reaching a final state")
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.stagehand/config.toml)")
	f.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "wall-clock interval between ticks")
	f.DurationVar(&cfg.FixedStep, "step", cfg.FixedStep, "fixed dt passed to every tick (0 uses measured time)")
	f.IntVar(&cfg.MaxTicks, "max-ticks", cfg.MaxTicks, "stop after this many ticks (0 means no limit)")
	f.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "how long to wait for the tick loop to stop")
	f.BoolVar(&cfg.Watch, "watch", cfg.Watch, "reload the script when it changes and keep running after the scene finishes")
	f.DurationVar(&cfg.WatchDebounce, "watch-debounce", cfg.WatchDebounce, "delay after a script change before reloading")
	f.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve /metrics and /healthz on this address (disabled when empty)")
	f.StringVar(&cfg.StatusDir, "status-dir", cfg.StatusDir, "write status.json here when the run stops (disabled when empty)")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	f.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (console or json)")

	return cmd
}

// loadConfig layers the config file and environment under the flags
// recorded in changed.
func loadConfig(cfg *cliconfig.Config, cfgPath string, changed map[string]bool) error {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}
	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	} else if cfgPath != "" {
		return fmt.Errorf("config file %s not found", cfgPath)
	}

	if err := cliconfig.LoadDotEnv(); err != nil {
		return err
	}
	return cliconfig.ApplyEnvConfig(cfg, changed)
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <script>",
		Short: "Check a script without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scene.Load(args[0])
			if err != nil {
				return err
			}
			steps := 0
			for _, st := range s.States {
				steps += len(st.Steps)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d states, %d steps, initial %q)\n",
				args[0], len(s.States), steps, s.Initial)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <status-dir>",
		Short: "Show how the last run ended",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := status.NewFileRepository(args[0])
			snap, err := repo.Load(cmd.Context())
			if err != nil {
				return err
			}
			if snap.IsEmpty() {
				return fmt.Errorf("no status recorded in %s", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "script:   %s\n", snap.Script)
			fmt.Fprintf(out, "state:    %s (finished: %t)\n", snap.State, snap.Finished)
			fmt.Fprintf(out, "ticks:    %d (%s)\n", snap.Ticks, snap.Elapsed)
			fmt.Fprintf(out, "saved at: %s\n", snap.SavedAt.Format(time.RFC3339))
			if snap.Error != "" {
				fmt.Fprintf(out, "error:    %s\n", snap.Error)
			}
			return nil
		},
	}
}
