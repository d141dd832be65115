package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vitrei/parley/core"
	"github.com/vitrei/parley/internal/util"
	"github.com/vitrei/parley/logging"
	"github.com/vitrei/parley/model"
	"github.com/vitrei/parley/phase"
)

const selectorSystemPrompt = "Du bist ein intelligenter Decision Agent und wählst für eine Konversation " +
	"zwischen einem Chatbot und einem Menschen den passenden nächsten Gesprächsabschnitt."

// LLMSelectorOptions configures an LLMSelector.
type LLMSelectorOptions struct {
	// Fallback is consulted when the model's reply stays malformed after the
	// retry. Defaults to the built-in rule chain.
	Fallback phase.Selector
	// Logger receives proposal log records.
	Logger logging.Logger
}

// LLMSelector proposes phase transitions by asking a model. The model sees
// the current phase, the allowed targets with their descriptions and the
// dialog so far, and replies with a small JSON verdict.
//
// The selector retries a malformed reply once; if the retry is malformed too
// it degrades to the fallback selector rather than failing the turn.
// Transport errors propagate to the caller.
type LLMSelector struct {
	model    model.Model
	fallback phase.Selector
	logger   *logging.ConversationLogger
}

// NewLLMSelector creates a model-backed transition selector.
func NewLLMSelector(m model.Model, optFns ...func(o *LLMSelectorOptions)) *LLMSelector {
	opts := LLMSelectorOptions{
		Fallback: phase.NewDefaultSelector(20, 3),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &LLMSelector{
		model:    m,
		fallback: opts.Fallback,
		logger:   logging.NewConversationLogger(opts.Logger).WithComponent("decision"),
	}
}

// proposal is the JSON verdict the model is asked to emit.
type proposal struct {
	NextAction string `json:"next_action"`
	Type       string `json:"type,omitempty"`
}

// Propose implements phase.Selector.
func (s *LLMSelector) Propose(ctx context.Context, state *core.AgentState, m *phase.Machine) (string, error) {
	instruction := s.buildPrompt(state, m)
	logger := s.logger.WithUser(state.UserID)

	reply, err := model.Complete(ctx, s.model, model.Request{
		System:      selectorSystemPrompt,
		Instruction: instruction,
	})
	if err != nil {
		return "", err
	}

	p, ok := parseProposal(reply)
	if !ok {
		logger.Warn("decision.selector.unparsable", "phase", state.CurrentPhase)

		reply, err = model.Complete(ctx, s.model, model.Request{
			System:      selectorSystemPrompt,
			Instruction: instruction,
		})
		if err != nil {
			return "", err
		}

		if p, ok = parseProposal(reply); !ok {
			logger.Warn("decision.selector.fallback", "phase", state.CurrentPhase)
			return s.fallback.Propose(ctx, state, m)
		}
	}

	if strings.EqualFold(p.NextAction, "STATE_TRANSITION") && p.Type != "" {
		return p.Type, nil
	}

	return state.CurrentPhase, nil
}

// parseProposal extracts the first JSON object from a model reply.
func parseProposal(reply string) (proposal, bool) {
	raw, ok := util.ExtractJSONObject(reply)
	if !ok {
		return proposal{}, false
	}

	var p proposal
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return proposal{}, false
	}

	return p, p.NextAction != ""
}

// buildPrompt renders the transition question for the model.
func (s *LLMSelector) buildPrompt(state *core.AgentState, m *phase.Machine) string {
	var b strings.Builder

	current, _ := m.Phase(state.CurrentPhase)
	fmt.Fprintf(&b, "Aktueller Abschnitt: %s (%s)\n", current.ID, current.Name)
	if current.Description != "" {
		fmt.Fprintf(&b, "Beschreibung: %s\n", current.Description)
	}

	b.WriteString("\nMögliche nächste Abschnitte:\n")
	for _, id := range m.Allowed(state.CurrentPhase) {
		p, _ := m.Phase(id)
		fmt.Fprintf(&b, "    %s (%s): %s\n", p.ID, p.Name, p.Description)
	}

	b.WriteString("\nDas ist der bisherige Dialog:\n")
	b.WriteString(transcript(state))

	b.WriteString("\nEntscheide, ob das Gespräch den Abschnitt wechseln soll. ")
	b.WriteString("Du gibst deine Antwort als JSON in folgender Weise:\n\n")
	b.WriteString("{\n    \"next_action\": \"STATE_TRANSITION\",\n    \"type\": \"<ziel>\"\n}\n\noder\n\n")
	b.WriteString("{\n    \"next_action\": \"STAY\"\n}\n")

	return b.String()
}

// transcript renders the recorded exchanges as a plain dialog.
func transcript(state *core.AgentState) string {
	if len(state.History) == 0 {
		return "(noch keine Nachrichten)\n"
	}

	var b strings.Builder
	for _, x := range state.History {
		fmt.Fprintf(&b, "Mensch: %s\n", x.Instruction)
		fmt.Fprintf(&b, "Chatbot: %s\n", x.Answer.Content)
	}

	return b.String()
}
