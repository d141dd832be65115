package phase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitrei/parley/core"
)

func newStateInPhase(id string, turn int) *core.AgentState {
	state := core.NewAgentState("user-1")
	state.CurrentPhase = id
	state.TurnCounter = turn
	return state
}

func TestRuleSelector_StaysWithoutFiringRule(t *testing.T) {
	m := MustDefault()
	s := NewDefaultSelector(20, 0)
	state := newStateInPhase(PhaseEngagement, 2)

	target, err := s.Propose(context.Background(), state, m)
	require.NoError(t, err)
	assert.Equal(t, PhaseEngagement, target)
}

func TestPayloadRule_ConsumesOverride(t *testing.T) {
	m := MustDefault()
	s := NewDefaultSelector(20, 0)
	state := newStateInPhase(PhaseReactionWait, 3)
	state.SetPayload(TargetKey, PhaseSkeptical)

	target, err := s.Propose(context.Background(), state, m)
	require.NoError(t, err)
	assert.Equal(t, PhaseSkeptical, target)

	_, ok := state.GetPayload(TargetKey)
	assert.False(t, ok, "override must apply to a single turn only")
}

func TestClosureRule_DrivesTowardTerminal(t *testing.T) {
	m := MustDefault()
	rule := ClosureRule{MaxTurns: 10}

	state := newStateInPhase(PhaseReflection, 10)
	target, ok := rule.Evaluate(state, m)
	require.True(t, ok)
	assert.Equal(t, PhaseEnd, target)

	state = newStateInPhase(PhaseReflection, 9)
	_, ok = rule.Evaluate(state, m)
	assert.False(t, ok, "budget not yet spent")

	state = newStateInPhase(PhaseReflection, 10)
	_, ok = ClosureRule{}.Evaluate(state, m)
	assert.False(t, ok, "zero budget disables the rule")
}

func TestProgressionRule_AdvancesAfterAllowance(t *testing.T) {
	m := MustDefault()
	rule := ProgressionRule{TurnsPerPhase: 3}

	state := newStateInPhase(PhaseEngagement, 5)
	state.SetPayload(EnteredTurnKey, 2)

	target, ok := rule.Evaluate(state, m)
	require.True(t, ok)
	assert.Equal(t, PhaseReactionWait, target)

	state.SetPayload(EnteredTurnKey, 3)
	_, ok = rule.Evaluate(state, m)
	assert.False(t, ok, "allowance not yet spent")

	// Entry turns survive a JSON round trip as float64.
	state.SetPayload(EnteredTurnKey, float64(2))
	target, ok = rule.Evaluate(state, m)
	require.True(t, ok)
	assert.Equal(t, PhaseReactionWait, target)
}

func TestRuleSelector_PriorityOrder(t *testing.T) {
	m := MustDefault()
	s := NewDefaultSelector(5, 1)

	// Payload override outranks both closure and progression.
	state := newStateInPhase(PhaseReflection, 6)
	state.SetPayload(TargetKey, PhaseEngagement)

	target, err := s.Propose(context.Background(), state, m)
	require.NoError(t, err)
	assert.Equal(t, PhaseEngagement, target)

	// Closure outranks progression once the total budget is spent.
	state = newStateInPhase(PhaseReflection, 6)
	state.SetPayload(EnteredTurnKey, 0)

	target, err = s.Propose(context.Background(), state, m)
	require.NoError(t, err)
	assert.Equal(t, PhaseEnd, target)
}
