package orchestrator

import (
	"time"

	"github.com/vitrei/parley/core"
)

// Observer receives turn-level measurements. The metrics package provides a
// Prometheus-backed implementation; the zero observer discards everything.
type Observer interface {
	// TurnCompleted reports a successfully recorded turn.
	TurnCompleted(agent string, decision core.DecisionType, dur time.Duration)

	// TurnFailed reports a failed turn together with its fault kind.
	TurnFailed(agent string, kind core.FaultKind, dur time.Duration)

	// ModelCall reports one generation call.
	ModelCall(model string, dur time.Duration, err error)

	// ActionCall reports one dispatched action.
	ActionCall(action string, dur time.Duration, err error)

	// InFlight reports turn starts (+1) and ends (-1).
	InFlight(delta int)
}

// nopObserver discards all measurements.
type nopObserver struct{}

func (nopObserver) TurnCompleted(string, core.DecisionType, time.Duration) {}
func (nopObserver) TurnFailed(string, core.FaultKind, time.Duration)       {}
func (nopObserver) ModelCall(string, time.Duration, error)                 {}
func (nopObserver) ActionCall(string, time.Duration, error)                {}
func (nopObserver) InFlight(int)                                           {}
