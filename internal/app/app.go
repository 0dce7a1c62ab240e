package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bft-labs/stagehand/internal/cliconfig"
	"github.com/bft-labs/stagehand/internal/observability"
	"github.com/bft-labs/stagehand/internal/scene"
	"github.com/bft-labs/stagehand/internal/status"
	"github.com/bft-labs/stagehand/pkg/driver"
	"github.com/bft-labs/stagehand/pkg/log"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "stagehand"

// Option configures Run.
type Option func(*options)

type options struct {
	logger log.Logger
	out    io.Writer
}

// WithLogger sets the logger shared by every component of the run.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = log.OrNoop(logger)
	}
}

// WithOutput sets where spoken lines are written, one per line.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// Result summarizes a finished run.
type Result struct {
	Scene      string
	Final      string
	Finished   bool
	Ticks      uint64
	Elapsed    time.Duration
	Vars       map[string]string
	Transcript []string
}

// Run plays the script named by cfg until it reaches a final state, a step
// chain fails, the tick limit is hit, or ctx is cancelled. With cfg.Watch
// set the scene keeps running after it finishes so edits can be replayed.
func Run(ctx context.Context, cfg cliconfig.Config, opts ...Option) (Result, error) {
	o := options{logger: log.NewNoopLogger(), out: io.Discard}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	script, err := scene.Load(cfg.ScriptPath)
	if err != nil {
		return Result{}, err
	}

	metrics := observability.NewMetrics(MetricsNamespace)
	director, err := scene.NewDirector(script,
		scene.WithLogger(logger),
		scene.WithEmitter(metrics.Transitions()),
		scene.WithObserver(metrics),
		scene.OnSay(func(text string) { fmt.Fprintln(o.out, text) }),
	)
	if err != nil {
		return Result{}, err
	}

	driverOpts := []driver.Option{
		driver.WithLogger(logger),
		driver.WithEventHandler(metrics),
	}
	if !cfg.Watch {
		driverOpts = append(driverOpts, driver.WithStopWhen(func() bool {
			return director.Finished() || director.Err() != nil
		}))
	}
	d, err := driver.New(driver.Config{
		TickInterval:    cfg.TickInterval,
		FixedStep:       cfg.FixedStep,
		MaxTicks:        uint64(cfg.MaxTicks),
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, driverOpts...)
	if err != nil {
		return Result{}, err
	}
	if err := d.Add("scene", director); err != nil {
		return Result{}, err
	}
	if err := d.Add("metrics", metrics.ChainSampler(director.Tasks)); err != nil {
		return Result{}, err
	}

	if cfg.Watch {
		w, err := scene.NewWatcher(scene.WatcherConfig{
			Path:          cfg.ScriptPath,
			DebounceDelay: cfg.WatchDebounce,
			Logger:        logger,
			OnReload: func(s *scene.Script) {
				d.Post(func() {
					if err := director.Reload(s); err != nil {
						logger.Warn("script reload rejected", log.Err(err))
					}
				})
			},
		})
		if err != nil {
			return Result{}, err
		}
		if err := w.Start(ctx); err != nil {
			return Result{}, err
		}
		defer w.Stop()
	}

	if cfg.MetricsAddr != "" {
		srv := observability.NewServer(cfg.MetricsAddr, metrics, d.Status, logger)
		if err := srv.Start(ctx); err != nil {
			return Result{}, err
		}
		defer func() {
			if err := srv.Stop(); err != nil {
				logger.Warn("admin server shutdown failed", log.Err(err))
			}
		}()
	}

	logger.Info("scene starting",
		log.String("script", cfg.ScriptPath),
		log.String("initial", script.Initial),
		log.Int("states", len(script.States)),
		log.Duration("tick", cfg.TickInterval),
	)

	runErr := d.Run(ctx)

	res := Result{
		Scene:      director.Script().Name,
		Final:      director.Current(),
		Finished:   director.Finished(),
		Ticks:      d.Ticks(),
		Elapsed:    director.Elapsed(),
		Vars:       director.Vars(),
		Transcript: director.Transcript(),
	}
	err = runErr
	if err == nil && director.Err() != nil {
		err = fmt.Errorf("scene %q: %w", res.Scene, director.Err())
	}

	if cfg.StatusDir != "" {
		repo := status.NewFileRepository(cfg.StatusDir)
		if serr := repo.Save(context.Background(), snapshot(cfg.ScriptPath, res, err)); serr != nil {
			logger.Warn("failed to save status", log.String("path", repo.Path()), log.Err(serr))
		}
	}
	if err != nil {
		return res, err
	}

	logger.Info("scene stopped",
		log.String("state", res.Final),
		log.Bool("finished", res.Finished),
		log.Uint64("ticks", res.Ticks),
		log.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func snapshot(script string, res Result, err error) status.Snapshot {
	snap := status.Snapshot{
		Script:     script,
		Scene:      res.Scene,
		State:      res.Final,
		Finished:   res.Finished,
		Ticks:      res.Ticks,
		Elapsed:    res.Elapsed,
		Vars:       res.Vars,
		Transcript: res.Transcript,
		SavedAt:    time.Now().UTC(),
	}
	if err != nil {
		snap.Error = err.Error()
	}
	return snap
}
