package driver

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/stagehand/pkg/log"
)

// Updater is anything advanced once per tick. *fsm.Machine and
// *task.Manager satisfy it.
type Updater interface {
	Update(dt time.Duration)
}

// UpdaterFunc adapts a function to Updater.
type UpdaterFunc func(dt time.Duration)

func (f UpdaterFunc) Update(dt time.Duration) { f(dt) }

type namedUpdater struct {
	name string
	Updater
}

// Driver owns the tick goroutine. Updaters are called on it in
// registration order; other goroutines hand work to it with Post.
type Driver struct {
	config    Config
	opts      options
	logger    log.Logger
	lifecycle *Lifecycle
	emitter   *eventEmitterWrapper

	mu       sync.Mutex
	updaters []namedUpdater
	posted   []func()
	done     chan struct{}
	err      error

	ticks atomic.Uint64
}

// New creates a Driver in StateStopped.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Driver, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	logger := log.With(o.logger, log.String("component", "driver"))
	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	done := make(chan struct{})
	close(done)

	return &Driver{
		config:    cfg,
		opts:      o,
		logger:    logger,
		lifecycle: NewLifecycle(logger, emitter),
		emitter:   emitter,
		done:      done,
	}, nil
}

// Config returns the driver configuration.
func (d *Driver) Config() Config { return d.config }

// Add registers u under name. Updaters run in the order they were added.
func (d *Driver) Add(name string, u Updater) error {
	if u == nil {
		return ErrNilUpdater
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, nu := range d.updaters {
		if nu.name == name {
			return ErrDuplicateName
		}
	}
	d.updaters = append(d.updaters, namedUpdater{name: name, Updater: u})
	return nil
}

// Remove unregisters the updater added under name.
func (d *Driver) Remove(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, nu := range d.updaters {
		if nu.name == name {
			d.updaters = append(d.updaters[:i:i], d.updaters[i+1:]...)
			return true
		}
	}
	return false
}

// Post queues fn to run on the tick goroutine at the start of the next
// tick, before any updater. Functions run in the order they were posted.
// Safe to call concurrently from any goroutine.
func (d *Driver) Post(fn func()) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	d.posted = append(d.posted, fn)
	d.mu.Unlock()
}

// Tick runs one tick with dt on the calling goroutine. It is meant for
// tests and embedding hosts that own their own loop, and returns
// ErrAlreadyRunning while the background loop is active.
func (d *Driver) Tick(dt time.Duration) error {
	if !d.lifecycle.CanStart() {
		return ErrAlreadyRunning
	}
	return d.tick(dt)
}

// Start begins ticking in the background.
// Returns immediately after starting the loop goroutine.
// The provided context bounds the lifetime of the loop.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.lifecycle.CanStart() {
		return ErrAlreadyRunning
	}

	if err := d.lifecycle.TransitionTo(StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.lifecycle.SetCancel(cancel)
	d.done = make(chan struct{})
	d.err = nil

	d.lifecycle.AddWorker()
	go d.run(runCtx, d.done)

	return nil
}

// Stop cancels the loop and waits up to Config.ShutdownTimeout for it to
// exit. Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (d *Driver) Stop() error {
	d.mu.Lock()

	if !d.lifecycle.CanStop() {
		d.mu.Unlock()
		return ErrNotRunning
	}

	if err := d.lifecycle.TransitionTo(StateStopping, "Stop() called"); err != nil {
		d.mu.Unlock()
		return err
	}

	d.lifecycle.Cancel()
	d.mu.Unlock()

	err := d.lifecycle.WaitWithTimeout(d.config.ShutdownTimeout)

	if err != nil {
		_ = d.lifecycle.TransitionTo(StateCrashed, "shutdown timeout")
	} else if d.lifecycle.State() == StateStopping {
		_ = d.lifecycle.TransitionTo(StateStopped, "graceful shutdown")
	}

	return err
}

// Run starts the loop and blocks until it exits. It returns the crash
// error, if any, and nil when the loop stopped normally.
func (d *Driver) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	select {
	case <-d.Done():
	case <-ctx.Done():
		if err := d.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
			return err
		}
	}
	return d.Err()
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (d *Driver) Status() State {
	return d.lifecycle.State()
}

// Done returns a channel closed when the current loop exits. Before the
// first Start the channel is already closed.
func (d *Driver) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

// Err returns the error that crashed the last loop, or nil.
func (d *Driver) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Ticks returns the number of ticks run so far.
func (d *Driver) Ticks() uint64 {
	return d.ticks.Load()
}

func (d *Driver) run(ctx context.Context, done chan struct{}) {
	defer d.lifecycle.WorkerDone()
	defer close(done)

	if err := d.lifecycle.TransitionTo(StateRunning, "loop started"); err != nil {
		// Stop won the race; nothing has ticked yet.
		return
	}

	ticker := time.NewTicker(d.config.TickInterval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			d.finish("context done")
			return
		case now := <-ticker.C:
			dt := d.config.FixedStep
			if dt == 0 {
				dt = now.Sub(last)
			}
			last = now

			if err := d.tick(dt); err != nil {
				d.crash(err)
				return
			}
			if reason, ok := d.shouldStop(); ok {
				d.finish(reason)
				return
			}
		}
	}
}

func (d *Driver) tick(dt time.Duration) (err error) {
	start := time.Now()
	n := d.ticks.Add(1)

	d.mu.Lock()
	posted := d.posted
	d.posted = nil
	updaters := append([]namedUpdater(nil), d.updaters...)
	d.mu.Unlock()

	current := "post"
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Updater: current, Tick: n, Value: r, Stack: debug.Stack()}
		}
	}()

	for _, fn := range posted {
		fn()
	}
	for _, u := range updaters {
		current = u.name
		u.Update(dt)
	}

	d.emitter.OnTick(TickEvent{Tick: n, Delta: dt, Duration: time.Since(start)})
	return nil
}

func (d *Driver) shouldStop() (string, bool) {
	if d.config.MaxTicks > 0 && d.ticks.Load() >= d.config.MaxTicks {
		return "max ticks reached", true
	}
	for _, cond := range d.opts.stopWhen {
		if cond() {
			return "stop condition met", true
		}
	}
	return "", false
}

// finish stops a loop that ended on its own. When Stop already moved the
// lifecycle to Stopping, Stop completes the transition.
func (d *Driver) finish(reason string) {
	if err := d.lifecycle.TransitionTo(StateStopping, reason); err != nil {
		return
	}
	d.logger.Debug("loop finished", log.Uint64("ticks", d.ticks.Load()), log.String("reason", reason))
	_ = d.lifecycle.TransitionTo(StateStopped, reason)
}

func (d *Driver) crash(err error) {
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()

	fields := []log.Field{log.Err(err), log.Tick(d.ticks.Load())}
	if pe, ok := err.(*PanicError); ok {
		fields = append(fields, log.String("updater", pe.Updater), log.String("stack", string(pe.Stack)))
	}
	d.logger.Error("tick failed", fields...)
	_ = d.lifecycle.TransitionTo(StateCrashed, err.Error())
}
