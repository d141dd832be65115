// Package metrics exposes Prometheus instrumentation for the conversation
// backend. Collector satisfies the orchestrator's Observer interface, so
// wiring it up is one Options assignment.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitrei/parley/core"
)

// Options configures a Collector.
type Options struct {
	// Namespace prefixes every metric name. Defaults to "parley".
	Namespace string

	// Registerer receives the collectors. Defaults to the process global
	// Prometheus registry.
	Registerer prometheus.Registerer
}

// Collector records turn, model, action and phase measurements. Creating a
// second Collector with the same namespace on the same registerer panics,
// the usual Prometheus double-registration rule.
type Collector struct {
	registerer       prometheus.Registerer
	turnsTotal       *prometheus.CounterVec
	turnFailures     *prometheus.CounterVec
	turnDuration     *prometheus.HistogramVec
	turnsInFlight    prometheus.Gauge
	modelCalls       *prometheus.CounterVec
	modelDuration    *prometheus.HistogramVec
	actionCalls      *prometheus.CounterVec
	actionDuration   *prometheus.HistogramVec
	phaseTransitions *prometheus.CounterVec
}

// NewCollector registers the backend's metrics and returns the recorder.
func NewCollector(optFns ...func(o *Options)) *Collector {
	opts := Options{
		Namespace:  "parley",
		Registerer: prometheus.DefaultRegisterer,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	factory := promauto.With(opts.Registerer)

	return &Collector{
		registerer: opts.Registerer,

		turnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "turns_total",
			Help:      "Completed turns by decision agent and decision type.",
		}, []string{"agent", "decision"}),

		turnFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "turn_failures_total",
			Help:      "Failed turns by decision agent and fault kind.",
		}, []string{"agent", "kind"}),

		turnDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall time of a full turn, failed turns included.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"agent", "status"}),

		turnsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: opts.Namespace,
			Name:      "turns_in_flight",
			Help:      "Turns currently being handled.",
		}),

		modelCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "model_calls_total",
			Help:      "Generation calls by model and outcome.",
		}, []string{"model", "status"}),

		modelDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "model_call_duration_seconds",
			Help:      "Latency of generation calls.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"model"}),

		actionCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "action_calls_total",
			Help:      "Dispatched actions by name and outcome.",
		}, []string{"action", "status"}),

		actionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "action_call_duration_seconds",
			Help:      "Latency of dispatched actions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),

		phaseTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "phase_transitions_total",
			Help:      "Executed phase moves; redirected ones went to the error phase.",
		}, []string{"from", "to", "redirected"}),
	}
}

// TurnCompleted records a successfully recorded turn.
func (c *Collector) TurnCompleted(agent string, decision core.DecisionType, dur time.Duration) {
	c.turnsTotal.WithLabelValues(agent, string(decision)).Inc()
	c.turnDuration.WithLabelValues(agent, "ok").Observe(dur.Seconds())
}

// TurnFailed records a failed turn together with its fault kind.
func (c *Collector) TurnFailed(agent string, kind core.FaultKind, dur time.Duration) {
	c.turnFailures.WithLabelValues(agent, string(kind)).Inc()
	c.turnDuration.WithLabelValues(agent, "error").Observe(dur.Seconds())
}

// ModelCall records one generation call.
func (c *Collector) ModelCall(model string, dur time.Duration, err error) {
	c.modelCalls.WithLabelValues(model, status(err)).Inc()
	c.modelDuration.WithLabelValues(model).Observe(dur.Seconds())
}

// ActionCall records one dispatched action.
func (c *Collector) ActionCall(action string, dur time.Duration, err error) {
	c.actionCalls.WithLabelValues(action, status(err)).Inc()
	c.actionDuration.WithLabelValues(action).Observe(dur.Seconds())
}

// InFlight moves the in-flight gauge by delta.
func (c *Collector) InFlight(delta int) {
	c.turnsInFlight.Add(float64(delta))
}

// PhaseTransition records one executed phase move.
func (c *Collector) PhaseTransition(from, to string, redirected bool) {
	c.phaseTransitions.WithLabelValues(from, to, strconv.FormatBool(redirected)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler serves the collector's registry in the Prometheus text format.
// Falls back to the process global handler when the registerer cannot
// gather, e.g. a wrapped or prefixed registerer.
func (c *Collector) Handler() http.Handler {
	if g, ok := c.registerer.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}
