package core

import "context"

// StateStore persists per-user agent state across turns.
//
// Implementations must:
//   - Hand out deep copies: mutations on a returned state never reach the
//     canonical copy until Save is called with it.
//   - Make GetOrCreate seed fresh states with a zero counter and empty
//     history; assigning the initial phase is the caller's concern.
//   - Tolerate Delete for unknown users (no-op, nil error).
//
// Eviction policy is a deployment concern; the in-memory store keeps states
// until deleted, external stores may attach TTLs.
type StateStore interface {
	// GetOrCreate returns a copy of the user's state, creating it on first use.
	GetOrCreate(ctx context.Context, userID string) (*AgentState, error)

	// Save replaces the canonical copy with the given state.
	Save(ctx context.Context, state *AgentState) error

	// Delete evicts the user's state.
	Delete(ctx context.Context, userID string) error
}
