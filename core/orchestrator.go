package core

import "context"

// Orchestrator coordinates the per-turn decision cycle.
//
// A concrete implementation is responsible for:
//   - Loading or creating the AgentState for a user
//   - Obtaining a NextActionDecision and executing the chosen strategy
//   - Recording completed turns exactly once and never recording failed ones
//
// Implementations MUST:
//   - Serialize turns within one session while keeping sessions parallel
//   - Propagate context cancellation into model and action calls
//   - Close returned channels when a streamed turn terminates
//   - Surface terminal errors via the error channel (stream) or direct return
type Orchestrator interface {
	// Handle runs one full turn and returns the final answer.
	Handle(ctx context.Context, userID, instruction string) (LLMAnswer, error)

	// HandleStream runs one full turn, forwarding content fragments as they
	// are produced. The delta channel carries TextDelta values followed by a
	// terminal AnswerDelta; the error channel holds at most one terminal
	// error. Both channels are closed when the turn completes.
	HandleStream(ctx context.Context, userID, instruction string) (<-chan Delta, <-chan error)

	// HandleProactive opens a conversation from the bot's side using the
	// configured proactive prompt. No decision agent runs; the opening is
	// recorded in history so later turns see it, but the turn counter stays
	// untouched.
	HandleProactive(ctx context.Context, userID string) (LLMAnswer, error)

	// HandleProactiveStream is the streaming variant of HandleProactive.
	HandleProactiveStream(ctx context.Context, userID string) (<-chan Delta, <-chan error)

	// Reset evicts the user's session so the next turn starts fresh.
	Reset(ctx context.Context, userID string) error
}
