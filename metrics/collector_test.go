package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitrei/parley/core"
	"github.com/vitrei/parley/orchestrator"
)

// Interface compliance (compile-time assertion)
var _ orchestrator.Observer = (*Collector)(nil)

func newTestCollector() *Collector {
	return NewCollector(func(o *Options) {
		o.Registerer = prometheus.NewRegistry()
	})
}

func TestCollector_TurnMeasurements(t *testing.T) {
	c := newTestCollector()

	c.TurnCompleted("scripted", core.GenerateAnswer, 120*time.Millisecond)
	c.TurnCompleted("scripted", core.GenerateAnswer, 80*time.Millisecond)
	c.TurnCompleted("scripted", core.ActionDispatch, 5*time.Millisecond)
	c.TurnFailed("scripted", core.FaultUpstream, 50*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.turnsTotal.WithLabelValues("scripted", "GENERATE_ANSWER")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.turnsTotal.WithLabelValues("scripted", "ACTION")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.turnFailures.WithLabelValues("scripted", "upstream")))
}

func TestCollector_InFlightGauge(t *testing.T) {
	c := newTestCollector()

	c.InFlight(1)
	c.InFlight(1)
	c.InFlight(-1)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.turnsInFlight))
}

func TestCollector_ModelAndActionOutcomes(t *testing.T) {
	c := newTestCollector()

	c.ModelCall("llama3", 200*time.Millisecond, nil)
	c.ModelCall("llama3", 5*time.Millisecond, errors.New("boom"))
	c.ActionCall("parrot", time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.modelCalls.WithLabelValues("llama3", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.modelCalls.WithLabelValues("llama3", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.actionCalls.WithLabelValues("parrot", "ok")))
}

func TestCollector_PhaseTransitions(t *testing.T) {
	c := newTestCollector()

	c.PhaseTransition("S3", "S4a", false)
	c.PhaseTransition("S3", "S_ERROR", true)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.phaseTransitions.WithLabelValues("S3", "S4a", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.phaseTransitions.WithLabelValues("S3", "S_ERROR", "true")))
}

func TestCollector_RegistersUnderNamespace(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(func(o *Options) {
		o.Namespace = "testns"
		o.Registerer = registry
	})
	c.InFlight(1)

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "testns_turns_in_flight")
}

func TestCollector_HandlerServesOwnRegistry(t *testing.T) {
	c := NewCollector(func(o *Options) {
		o.Namespace = "handlerns"
		o.Registerer = prometheus.NewRegistry()
	})
	c.TurnCompleted("scripted", core.GenerateAnswer, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "handlerns_turns_total")
}
