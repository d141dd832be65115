package decision

import (
	"context"

	"github.com/vitrei/parley/core"
)

// ScriptedOptions configures a Scripted agent.
type ScriptedOptions struct {
	// Name overrides the agent name.
	Name string
	// Fallback is returned for turns the script does not cover. Defaults to
	// injecting the "general_guidance" block.
	Fallback core.NextActionDecision
}

// Scripted maps the session's completed-turn count to fixed verdicts: the
// first instruction of a session arrives at count 0. Used for demos and
// scripted study conditions where the flow is known in advance.
type Scripted struct {
	name     string
	script   map[int]core.NextActionDecision
	fallback core.NextActionDecision
}

// NewScripted creates an agent following the given turn script.
func NewScripted(script map[int]core.NextActionDecision, optFns ...func(o *ScriptedOptions)) *Scripted {
	opts := ScriptedOptions{
		Name:     "scripted",
		Fallback: core.NewGuidingInstructionsDecision("general_guidance"),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	copied := make(map[int]core.NextActionDecision, len(script))
	for turn, d := range script {
		copied[turn] = d
	}

	return &Scripted{name: opts.Name, script: copied, fallback: opts.Fallback}
}

// DefaultScript returns the career-guidance demo script, keyed by completed
// turns: ask for the user's location at count 3, recommend an educational
// path at count 4, echo at count 5, guide everywhere else.
func DefaultScript() map[int]core.NextActionDecision {
	return map[int]core.NextActionDecision{
		3: core.NewGuidingInstructionsDecision("location"),
		4: core.NewActionDecision("path_prediction"),
		5: core.NewActionDecision("parrot"),
	}
}

// Name implements core.DecisionAgent.
func (a *Scripted) Name() string { return a.name }

// NextAction implements core.DecisionAgent.
func (a *Scripted) NextAction(_ context.Context, state *core.AgentState) (core.NextActionDecision, error) {
	if d, ok := a.script[state.TurnCounter]; ok {
		return d, nil
	}

	return a.fallback, nil
}
