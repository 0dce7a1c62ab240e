package scene

import (
	"fmt"
	"time"

	"github.com/bft-labs/stagehand/pkg/fsm"
	"github.com/bft-labs/stagehand/pkg/log"
	"github.com/bft-labs/stagehand/pkg/task"
)

// Option configures a Director.
type Option func(*options)

type options struct {
	logger   log.Logger
	emitter  fsm.Emitter[string]
	observer task.Observer
	onSay    func(text string)
}

// WithLogger sets the logger shared by the director, its machine and its
// task manager.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = log.OrNoop(logger)
	}
}

// WithEmitter receives the director's state transitions.
func WithEmitter(e fsm.Emitter[string]) Option {
	return func(o *options) {
		o.emitter = e
	}
}

// WithObserver receives the director's finished step chains.
func WithObserver(obs task.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// OnSay is called with every line a say step speaks.
func OnSay(fn func(text string)) Option {
	return func(o *options) {
		o.onSay = fn
	}
}

// Director runs a Script. It is the context object of a state machine
// whose states are the script's states; entering a state submits that
// state's steps as one task chain.
//
// A Director is driven from a single goroutine through Update.
type Director struct {
	opts   options
	logger log.Logger

	script  *Script
	machine *fsm.Machine[string, *Director]
	tasks   *task.Manager

	chain    task.ChainID
	hasChain bool
	err      error

	vars       map[string]string
	transcript []string
	elapsed    time.Duration
}

// NewDirector validates script and prepares it to run from its initial
// state on the first Update.
func NewDirector(script *Script, opts ...Option) (*Director, error) {
	o := options{logger: log.NewNoopLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Director{opts: o}
	if err := d.load(script); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Director) load(script *Script) error {
	if script == nil {
		return fmt.Errorf("%w: nil script", ErrInvalidScript)
	}
	if err := script.Validate(); err != nil {
		return err
	}

	name := script.Name
	if name == "" {
		name = "scene"
	}
	logger := log.With(d.opts.logger, log.String("scene", name))

	fsmOpts := []fsm.Option[string, *Director]{
		fsm.WithName[string, *Director](name),
		fsm.WithLogger[string, *Director](logger),
	}
	if d.opts.emitter != nil {
		fsmOpts = append(fsmOpts, fsm.WithEmitter[string, *Director](d.opts.emitter))
	}
	machine := fsm.New[string, *Director](d, fsmOpts...)
	for _, st := range script.States {
		spec := st
		if err := machine.Register(spec.Name, func() fsm.State[string, *Director] {
			return &sceneState{spec: spec}
		}); err != nil {
			return err
		}
	}
	if err := machine.TransitionTo(script.Initial); err != nil {
		return err
	}

	d.script = script
	d.logger = logger
	d.machine = machine
	d.tasks = task.NewManager(
		task.WithManagerName(name),
		task.WithLogger(logger),
		task.WithObserver(task.ObserverFunc(d.onChainFinished)),
	)
	d.chain, d.hasChain = "", false
	d.err = nil
	d.vars = make(map[string]string)
	d.transcript = nil
	d.elapsed = 0
	return nil
}

// Update advances the scene by dt: the machine first, so a pending goto is
// applied before the current state's steps are stepped.
func (d *Director) Update(dt time.Duration) {
	d.elapsed += dt
	d.machine.Update(dt)
	d.tasks.Update(dt)
}

// Reload replaces the running script with script and restarts it from its
// initial state. Variables and transcript are cleared. On error the
// current script keeps running.
func (d *Director) Reload(script *Script) error {
	if script == nil {
		return fmt.Errorf("%w: nil script", ErrInvalidScript)
	}
	if err := script.Validate(); err != nil {
		return err
	}

	d.tasks.AbortAll()
	d.machine.Destroy()
	if err := d.load(script); err != nil {
		return err
	}
	d.logger.Info("scene reloaded", log.String("initial", script.Initial))
	return nil
}

// Finished reports whether the scene is in a final state with no steps
// left to run and no transition pending.
func (d *Director) Finished() bool {
	cur, ok := d.machine.Current()
	if !ok {
		return false
	}
	if _, pending := d.machine.Pending(); pending {
		return false
	}
	spec, _ := d.script.State(cur)
	return spec.Final && !d.tasks.HasActiveChains()
}

// Err returns the error of the first failed step chain, if any.
func (d *Director) Err() error { return d.err }

// Script returns the running script.
func (d *Director) Script() *Script { return d.script }

// Current returns the current state name, or "" before the first Update.
func (d *Director) Current() string {
	cur, _ := d.machine.Current()
	return cur
}

// Machine exposes the underlying state machine.
func (d *Director) Machine() *fsm.Machine[string, *Director] { return d.machine }

// Tasks exposes the underlying task manager.
func (d *Director) Tasks() *task.Manager { return d.tasks }

// Elapsed returns the total dt the director has been updated with.
func (d *Director) Elapsed() time.Duration { return d.elapsed }

// Set assigns a scene variable. Await steps watch these.
func (d *Director) Set(key, value string) {
	d.vars[key] = value
	d.logger.Debug("variable set", log.String("key", key), log.String("value", value))
}

// Var returns a scene variable.
func (d *Director) Var(key string) (string, bool) {
	v, ok := d.vars[key]
	return v, ok
}

// Vars returns a copy of the scene variables.
func (d *Director) Vars() map[string]string {
	out := make(map[string]string, len(d.vars))
	for k, v := range d.vars {
		out[k] = v
	}
	return out
}

// Transcript returns every line spoken so far.
func (d *Director) Transcript() []string {
	return append([]string(nil), d.transcript...)
}

func (d *Director) say(text string) {
	d.transcript = append(d.transcript, text)
	d.logger.Info("say", log.String("state", d.Current()), log.String("text", text))
	if d.opts.onSay != nil {
		d.opts.onSay(text)
	}
}

func (d *Director) enter(spec StateSpec) {
	root := d.buildChain(spec)
	if root == nil {
		return
	}
	id, err := d.tasks.Submit(root)
	if err != nil {
		// unreachable: root was built just above
		panic(fmt.Sprintf("scene: submit steps of %q: %v", spec.Name, err))
	}
	d.chain, d.hasChain = id, true
}

func (d *Director) exit() {
	if !d.hasChain {
		return
	}
	d.tasks.Abort(d.chain)
	d.chain, d.hasChain = "", false
}

func (d *Director) onChainFinished(ev task.ChainEvent) {
	if d.hasChain && ev.Chain == d.chain {
		d.hasChain = false
	}
	if ev.Status == task.Failed && d.err == nil {
		d.err = ev.Err
	}
	if d.opts.observer != nil {
		d.opts.observer.OnChainFinished(ev)
	}
}

// buildChain turns a state's steps into a fresh task chain.
func (d *Director) buildChain(spec StateSpec) task.Task {
	tasks := make([]task.Task, 0, len(spec.Steps))
	for i, step := range spec.Steps {
		tasks = append(tasks, d.buildStep(step, fmt.Sprintf("%s/%d:%s", spec.Name, i+1, step.Kind)))
	}
	return task.Chain(tasks...)
}

func (d *Director) buildStep(step Step, name string) task.Task {
	named := task.WithName(name)
	switch step.Kind {
	case KindSay:
		text := step.Text
		return task.NewAction(func() { d.say(text) }, named)
	case KindWait:
		dur, _ := parseDuration(step.Duration)
		return task.NewWait(dur, named)
	case KindSet:
		key, value := step.Key, step.Value
		return task.NewAction(func() { d.Set(key, value) }, named)
	case KindAwait:
		timeout, _ := parseDuration(step.Timeout)
		a := &awaitTask{director: d, key: step.Key, value: step.Value, timeout: timeout}
		a.SetName(name)
		return a
	case KindGoto:
		target := step.Target
		return task.NewAction(func() { _ = d.machine.TransitionTo(target) }, named)
	default:
		// Validate rejects unknown kinds.
		panic(fmt.Sprintf("scene: unknown step kind %q", step.Kind))
	}
}

// sceneState is the fsm state built for every script state.
type sceneState struct {
	fsm.Base[string, *Director]
	spec    StateSpec
	entries int
}

func (s *sceneState) OnEnter() {
	s.entries++
	d := s.Context()
	d.logger.Debug("state entered", log.String("state", s.Kind()), log.Int("entries", s.entries))
	d.enter(s.spec)
}

func (s *sceneState) OnExit() {
	s.Context().exit()
}

// awaitTask completes once a scene variable holds the expected value, and
// fails when its optional timeout runs out first.
type awaitTask struct {
	task.Base
	director *Director
	key      string
	value    string
	timeout  time.Duration
	waited   time.Duration
}

func (a *awaitTask) Begin() {
	a.waited = 0
}

func (a *awaitTask) Poll(dt time.Duration) bool {
	if v, ok := a.director.Var(a.key); ok && v == a.value {
		return true
	}
	a.waited += dt
	if a.timeout > 0 && a.waited >= a.timeout {
		a.Fail(&AwaitTimeoutError{Key: a.key, Value: a.value, Timeout: a.timeout})
	}
	return false
}

// AwaitTimeoutError reports an await step that timed out.
type AwaitTimeoutError struct {
	Key     string
	Value   string
	Timeout time.Duration
}

func (e *AwaitTimeoutError) Error() string {
	return fmt.Sprintf("scene: timed out after %s waiting for %s=%q", e.Timeout, e.Key, e.Value)
}
