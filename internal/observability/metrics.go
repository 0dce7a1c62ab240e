package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bft-labs/stagehand/pkg/driver"
	"github.com/bft-labs/stagehand/pkg/fsm"
	"github.com/bft-labs/stagehand/pkg/task"
)

// Metrics groups the Prometheus instruments of a running scene.
// Instruments live on their own registry so several instances can coexist
// in one process.
type Metrics struct {
	registry *prometheus.Registry

	Ticks            prometheus.Counter
	TickDuration     prometheus.Histogram
	ActiveChains     *prometheus.GaugeVec
	ChainsFinished   *prometheus.CounterVec
	StateTransitions *prometheus.CounterVec
}

// NewMetrics creates the instruments under namespace on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Driver ticks run.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent running one tick.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.004, 0.008, 0.016, 0.033, 0.1},
		}),
		ActiveChains: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_chains",
			Help:      "Task chains still running, by manager.",
		}, []string{"manager"}),
		ChainsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chains_finished_total",
			Help:      "Finished task chains by manager and final status.",
		}, []string{"manager", "status"}),
		StateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "State machine transitions by machine and target state.",
		}, []string{"machine", "to"}),
	}
	m.registry.MustRegister(m.Ticks, m.TickDuration, m.ActiveChains, m.ChainsFinished, m.StateTransitions)
	return m
}

// Registry returns the registry holding the instruments.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// OnStateChange implements driver.EventHandler.
func (m *Metrics) OnStateChange(driver.StateChangeEvent) {}

// OnTick implements driver.EventHandler.
func (m *Metrics) OnTick(ev driver.TickEvent) {
	m.Ticks.Inc()
	m.TickDuration.Observe(ev.Duration.Seconds())
}

// OnChainFinished implements task.Observer.
func (m *Metrics) OnChainFinished(ev task.ChainEvent) {
	m.ChainsFinished.WithLabelValues(ev.Manager, ev.Status.String()).Inc()
}

// Transitions returns an emitter counting state machine transitions.
func (m *Metrics) Transitions() fsm.Emitter[string] {
	return fsm.EmitterFunc[string](func(c fsm.StateChange[string]) {
		m.StateTransitions.WithLabelValues(c.Machine, c.To).Inc()
	})
}

// ChainSampler returns an updater that copies the active chain count of
// manager into the active_chains gauge on every tick. manager is called
// each time so it may be swapped, as on a script reload.
func (m *Metrics) ChainSampler(manager func() *task.Manager) driver.Updater {
	return driver.UpdaterFunc(func(time.Duration) {
		tm := manager()
		if tm == nil {
			return
		}
		m.ActiveChains.WithLabelValues(tm.Name()).Set(float64(tm.Len()))
	})
}
