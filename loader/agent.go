package loader

import (
	"fmt"
	"strings"

	"github.com/vitrei/parley/action"
	"github.com/vitrei/parley/config"
	"github.com/vitrei/parley/core"
	"github.com/vitrei/parley/decision"
	"github.com/vitrei/parley/logging"
	"github.com/vitrei/parley/metrics"
	"github.com/vitrei/parley/model"
	"github.com/vitrei/parley/phase"
	"github.com/vitrei/parley/prompt"
)

// references collects the guidance and action names a configured agent can
// emit, so they can be resolved against the prompt material and the action
// registry before traffic.
type references struct {
	guidance []string
	actions  []string
}

func (r *references) add(d core.NextActionDecision) {
	switch d.Type {
	case core.GuidingInstructions:
		r.guidance = appendUnique(r.guidance, d.Action)
	case core.ActionDispatch:
		r.actions = appendUnique(r.actions, d.Action)
	}
}

func appendUnique(names []string, name string) []string {
	if name == "" {
		return names
	}
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}

func buildAgent(cfg *config.Config, m model.Model, logger logging.Logger, collector *metrics.Collector) (core.DecisionAgent, references, error) {
	var refs references

	switch cfg.Agent.Kind {
	case "scripted":
		script := decision.DefaultScript()
		fallback := core.NewGuidingInstructionsDecision("general_guidance")
		for _, d := range script {
			refs.add(d)
		}
		refs.add(fallback)

		agent := decision.NewScripted(script, func(o *decision.ScriptedOptions) {
			o.Fallback = fallback
		})
		return agent, refs, nil

	case "phase":
		machine, err := LoadMachine(cfg)
		if err != nil {
			return nil, refs, err
		}
		for _, id := range machine.PhaseIDs() {
			p, _ := machine.Phase(id)
			refs.add(decisionOf(p))
		}

		selector := buildSelector(cfg.Agent, m, logger)
		agent := decision.NewPhaseAgent(machine, func(o *decision.PhaseAgentOptions) {
			o.Selector = selector
			o.Logger = logger
			if collector != nil {
				o.Transitions = collector.PhaseTransition
			}
		})
		return agent, refs, nil

	default:
		return decision.NewConversationOnly(), refs, nil
	}
}

// decisionOf mirrors the phase agent's verdict mapping for validation
// purposes.
func decisionOf(p phase.Phase) core.NextActionDecision {
	switch p.Decide.Type {
	case core.GuidingInstructions:
		return core.NewGuidingInstructionsDecision(p.Decide.Action)
	case core.ActionDispatch:
		return core.NewActionDecision(p.Decide.Action)
	default:
		return core.NewGenerateAnswerDecision()
	}
}

func buildSelector(cfg config.AgentConfig, m model.Model, logger logging.Logger) phase.Selector {
	rules := phase.NewDefaultSelector(cfg.TurnBudget, cfg.ProgressEvery)
	if cfg.Selector != "llm" {
		return rules
	}
	return decision.NewLLMSelector(m, func(o *decision.LLMSelectorOptions) {
		o.Fallback = rules
		o.Logger = logger
	})
}

// validateReferences resolves every name an agent can emit before the
// process accepts traffic. The proactive prompt is required because the
// conversation-opening endpoint is always exposed.
func validateReferences(provider prompt.Provider, registry *action.Registry, language string, refs references) error {
	if err := prompt.Validate(provider, language, refs.guidance); err != nil {
		return err
	}

	set, err := provider.Resolve(language)
	if err != nil {
		return err
	}
	if strings.TrimSpace(set.Proactive) == "" {
		return core.NewConfigurationFault(
			fmt.Sprintf("language %q has no proactive prompt", language), nil)
	}

	for _, name := range refs.actions {
		if _, err := registry.Resolve(name); err != nil {
			return core.NewConfigurationFault(
				fmt.Sprintf("configured flow references action %q", name), err)
		}
	}

	return nil
}
