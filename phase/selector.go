package phase

import (
	"context"
	"sort"

	"github.com/vitrei/parley/core"
)

// Selector proposes the transition target for the current turn. Returning the
// current phase id (or "") means staying put. A proposal is exactly that: the
// decision agent still checks it against the machine and redirects to the
// error phase when the graph forbids it.
type Selector interface {
	Propose(ctx context.Context, state *core.AgentState, m *Machine) (string, error)
}

// SelectorFunc adapts a function to the Selector interface.
type SelectorFunc func(ctx context.Context, state *core.AgentState, m *Machine) (string, error)

// Propose calls the wrapped function.
func (f SelectorFunc) Propose(ctx context.Context, state *core.AgentState, m *Machine) (string, error) {
	return f(ctx, state, m)
}

// Rule is one prioritized transition heuristic. Lower priority values win.
// Evaluate returns the proposed target and whether the rule fired.
type Rule interface {
	Name() string
	Priority() int
	Evaluate(state *core.AgentState, m *Machine) (string, bool)
}

// RuleSelector evaluates a fixed rule chain in priority order and proposes
// the first target a rule produces. Without a firing rule the conversation
// stays in its current phase.
type RuleSelector struct {
	rules []Rule
}

// NewRuleSelector builds a selector over the given rules, sorted by priority.
func NewRuleSelector(rules ...Rule) *RuleSelector {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority() < sorted[j].Priority() })
	return &RuleSelector{rules: sorted}
}

// NewDefaultSelector returns the rule chain used by the built-in flow:
// explicit payload overrides first, then conversation closure after maxTurns
// total turns, then steady progression after turnsPerPhase turns in a phase.
func NewDefaultSelector(maxTurns, turnsPerPhase int) *RuleSelector {
	return NewRuleSelector(
		PayloadRule{},
		ClosureRule{MaxTurns: maxTurns},
		ProgressionRule{TurnsPerPhase: turnsPerPhase},
	)
}

// Propose implements Selector.
func (s *RuleSelector) Propose(_ context.Context, state *core.AgentState, m *Machine) (string, error) {
	for _, r := range s.rules {
		if target, ok := r.Evaluate(state, m); ok {
			return target, nil
		}
	}
	return state.CurrentPhase, nil
}

// PayloadRule honors a transition target placed into the session payload
// under TargetKey, typically by an action or an operator tool. The key is
// consumed on use so the override applies to a single turn.
type PayloadRule struct{}

func (PayloadRule) Name() string  { return "payload_override" }
func (PayloadRule) Priority() int { return 0 }

func (PayloadRule) Evaluate(state *core.AgentState, _ *Machine) (string, bool) {
	v, ok := state.GetPayload(TargetKey)
	if !ok {
		return "", false
	}
	target, ok := v.(string)
	if !ok || target == "" {
		return "", false
	}
	state.DeletePayload(TargetKey)
	return target, true
}

// ClosureRule drives the conversation toward closure once the total turn
// budget is spent. It only fires when the graph permits the move, walking
// from the current phase toward the nearest terminal phase.
type ClosureRule struct {
	// MaxTurns is the total turn budget. Zero disables the rule.
	MaxTurns int
}

func (ClosureRule) Name() string  { return "closure" }
func (ClosureRule) Priority() int { return 10 }

func (r ClosureRule) Evaluate(state *core.AgentState, m *Machine) (string, bool) {
	if r.MaxTurns <= 0 || state.TurnCounter < r.MaxTurns {
		return "", false
	}
	for _, next := range m.Allowed(state.CurrentPhase) {
		if m.IsTerminal(next) {
			return next, true
		}
	}
	// No direct path to a terminal phase: step toward one if a neighbor has it.
	for _, next := range m.Allowed(state.CurrentPhase) {
		for _, nn := range m.Allowed(next) {
			if m.IsTerminal(nn) {
				return next, true
			}
		}
	}
	return "", false
}

// ProgressionRule keeps the conversation moving by proposing the first
// declared transition once the session has spent TurnsPerPhase turns in the
// current phase. Phase entry turns are tracked under EnteredTurnKey.
type ProgressionRule struct {
	// TurnsPerPhase is the per-phase turn allowance. Zero disables the rule.
	TurnsPerPhase int
}

func (ProgressionRule) Name() string  { return "progression" }
func (ProgressionRule) Priority() int { return 20 }

func (r ProgressionRule) Evaluate(state *core.AgentState, m *Machine) (string, bool) {
	if r.TurnsPerPhase <= 0 {
		return "", false
	}
	entered := 0
	if v, ok := state.GetPayload(EnteredTurnKey); ok {
		switch n := v.(type) {
		case int:
			entered = n
		case float64:
			entered = int(n)
		}
	}
	if state.TurnCounter-entered < r.TurnsPerPhase {
		return "", false
	}
	next := m.Allowed(state.CurrentPhase)
	if len(next) == 0 {
		return "", false
	}
	return next[0], true
}
