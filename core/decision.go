package core

import "fmt"

// DecisionType enumerates the closed set of strategies a decision agent can
// select for a turn. The orchestrator branches exclusively on this value.
type DecisionType string

const (
	// GenerateAnswer calls the model with the plain system prompt.
	GenerateAnswer DecisionType = "GENERATE_ANSWER"
	// PromptAdaption transforms the system prompt before the model call.
	PromptAdaption DecisionType = "PROMPT_ADAPTION"
	// GuidingInstructions injects a named guidance block into the instruction.
	GuidingInstructions DecisionType = "GUIDING_INSTRUCTIONS"
	// ActionDispatch invokes a registered action instead of the model.
	ActionDispatch DecisionType = "ACTION"
)

// Valid reports whether t is a member of the closed decision type set.
func (t DecisionType) Valid() bool {
	switch t {
	case GenerateAnswer, PromptAdaption, GuidingInstructions, ActionDispatch:
		return true
	}
	return false
}

// NextActionDecision is the immutable verdict returned once per orchestration
// cycle. The meaning of Action depends on Type: a guidance-block name for
// GuidingInstructions, an action-registry key for ActionDispatch, and unset
// for plain generation.
type NextActionDecision struct {
	Type    DecisionType   `json:"type"`
	Action  string         `json:"action,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// NewGenerateAnswerDecision returns the plain-generation verdict.
func NewGenerateAnswerDecision() NextActionDecision {
	return NextActionDecision{Type: GenerateAnswer}
}

// NewPromptAdaptionDecision returns a verdict that adapts the system prompt
// according to the given payload before the model call.
func NewPromptAdaptionDecision(payload map[string]any) NextActionDecision {
	return NextActionDecision{Type: PromptAdaption, Payload: payload}
}

// NewGuidingInstructionsDecision returns a verdict that injects the named
// guidance block into the instruction.
func NewGuidingInstructionsDecision(name string) NextActionDecision {
	return NextActionDecision{Type: GuidingInstructions, Action: name}
}

// NewActionDecision returns a verdict that dispatches the named action.
func NewActionDecision(name string) NextActionDecision {
	return NextActionDecision{Type: ActionDispatch, Action: name}
}

// Validate checks the structural invariants of the decision: the type must be
// a member of the closed set, and action-addressed types must carry a name.
func (d NextActionDecision) Validate() error {
	if !d.Type.Valid() {
		return fmt.Errorf("unknown decision type %q", d.Type)
	}
	if d.Type == ActionDispatch && d.Action == "" {
		return fmt.Errorf("decision type %s requires an action name", ActionDispatch)
	}
	if d.Type == GuidingInstructions && d.Action == "" {
		return fmt.Errorf("decision type %s requires a guidance name", GuidingInstructions)
	}
	return nil
}
