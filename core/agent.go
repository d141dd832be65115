package core

import "context"

// DecisionAgent maps the accumulated state of a conversation to the verdict
// for the current turn.
//
// Implementations must:
//   - Be pure with respect to all state outside the passed AgentState; they
//     may read and write its CurrentPhase and Payload but never another
//     session's state.
//   - Honor ctx cancellation and deadlines on any network I/O they perform.
//   - Return decisions whose type is a member of the closed DecisionType set.
type DecisionAgent interface {
	// Name returns the agent's stable identifier used in logs and metrics.
	Name() string

	// NextAction inspects the state and returns the verdict for this turn.
	NextAction(ctx context.Context, state *AgentState) (NextActionDecision, error)
}
