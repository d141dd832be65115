package decision

import (
	"context"

	"github.com/vitrei/parley/core"
	"github.com/vitrei/parley/logging"
	"github.com/vitrei/parley/phase"
)

// PhaseAgentOptions configures a PhaseAgent.
type PhaseAgentOptions struct {
	// Name overrides the agent name.
	Name string
	// Selector proposes transition targets. Defaults to the built-in rule
	// chain with a 20 turn budget and progression every 3 turns.
	Selector phase.Selector
	// Logger receives transition log records.
	Logger logging.Logger
	// Transitions, when set, receives every executed phase move in addition
	// to the log record. Redirected marks moves diverted to the error phase.
	Transitions func(from, to string, redirected bool)
}

// PhaseAgent drives decisions from a validated phase graph: a selector
// proposes where the conversation should go, the agent verifies the move
// against the machine and maps the resulting phase onto its declared verdict.
//
// Disallowed proposals never fail the turn; the agent redirects to the
// graph's error phase and carries on. The new phase is persisted into the
// passed state before returning, so a failed turn discards it together with
// the rest of the working copy.
type PhaseAgent struct {
	name        string
	machine     *phase.Machine
	selector    phase.Selector
	logger      *logging.ConversationLogger
	transitions func(from, to string, redirected bool)
}

// NewPhaseAgent creates a phase-driven agent over a compiled machine.
func NewPhaseAgent(machine *phase.Machine, optFns ...func(o *PhaseAgentOptions)) *PhaseAgent {
	opts := PhaseAgentOptions{
		Name:     "phase",
		Selector: phase.NewDefaultSelector(20, 3),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &PhaseAgent{
		name:        opts.Name,
		machine:     machine,
		selector:    opts.Selector,
		logger:      logging.NewConversationLogger(opts.Logger).WithComponent("decision"),
		transitions: opts.Transitions,
	}
}

// Machine exposes the underlying phase graph, e.g. for startup validation of
// referenced guidance and action names.
func (a *PhaseAgent) Machine() *phase.Machine { return a.machine }

// Name implements core.DecisionAgent.
func (a *PhaseAgent) Name() string { return a.name }

// NextAction implements core.DecisionAgent.
func (a *PhaseAgent) NextAction(ctx context.Context, state *core.AgentState) (core.NextActionDecision, error) {
	logger := a.logger.WithUser(state.UserID)

	current := state.CurrentPhase
	if _, ok := a.machine.Phase(current); !ok {
		// Empty on first contact, or stale after a graph change. Both cases
		// restart the flow at the entry phase.
		a.move(state, a.machine.Initial())
		current = state.CurrentPhase
	}

	if a.machine.IsTerminal(current) {
		return a.decideFor(current), nil
	}

	target, err := a.selector.Propose(ctx, state, a.machine)
	if err != nil {
		return core.NextActionDecision{}, err
	}

	if target != "" && target != current {
		if a.machine.CanTransition(current, target) {
			a.move(state, target)
			a.moved(current, target, false, logger)
		} else {
			logger.Warn("phase transition rejected", "error", core.NewPhaseTransitionFault(current, target).Error())
			a.move(state, a.machine.ErrorPhase())
			a.moved(current, a.machine.ErrorPhase(), true, logger)
		}
	}

	return a.decideFor(state.CurrentPhase), nil
}

func (a *PhaseAgent) move(state *core.AgentState, target string) {
	state.CurrentPhase = target
	state.SetPayload(phase.EnteredTurnKey, state.TurnCounter)
}

func (a *PhaseAgent) moved(from, to string, redirected bool, logger *logging.ConversationLogger) {
	logger.LogPhaseTransition(from, to, redirected)
	if a.transitions != nil {
		a.transitions(from, to, redirected)
	}
}

// decideFor maps a phase onto its declared verdict. Phases without an
// explicit mapping answer by plain generation.
func (a *PhaseAgent) decideFor(id string) core.NextActionDecision {
	p, ok := a.machine.Phase(id)
	if !ok {
		return core.NewGenerateAnswerDecision()
	}

	switch p.Decide.Type {
	case core.PromptAdaption:
		return core.NewPromptAdaptionDecision(map[string]any{"directive": p.Description})
	case core.GuidingInstructions:
		return core.NewGuidingInstructionsDecision(p.Decide.Action)
	case core.ActionDispatch:
		return core.NewActionDecision(p.Decide.Action)
	default:
		return core.NewGenerateAnswerDecision()
	}
}
