package decision

import (
	"context"

	"github.com/vitrei/parley/core"
)

// ConversationOnly is the default decision agent: every turn is answered by
// plain generation, regardless of state.
type ConversationOnly struct{}

// NewConversationOnly creates the pass-through agent.
func NewConversationOnly() *ConversationOnly { return &ConversationOnly{} }

// Name implements core.DecisionAgent.
func (a *ConversationOnly) Name() string { return "conversation_only" }

// NextAction implements core.DecisionAgent.
func (a *ConversationOnly) NextAction(_ context.Context, _ *core.AgentState) (core.NextActionDecision, error) {
	return core.NewGenerateAnswerDecision(), nil
}
