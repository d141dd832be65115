package core

import (
	"time"

	"github.com/google/uuid"
)

// Exchange is one completed instruction/answer pair in a session's history.
// Exchanges are append-only and their insertion order is significant.
type Exchange struct {
	ID          string    `json:"id"`          // Unique exchange identifier
	Instruction string    `json:"instruction"` // The user instruction that opened the turn
	Answer      LLMAnswer `json:"answer"`      // The answer that closed the turn
	Timestamp   time.Time `json:"timestamp"`   // Completion time of the turn
}

// AgentState is the per-session conversational memory. One instance exists
// per user session and is owned exclusively by the orchestrator for the
// duration of a turn; concurrent turns for the same user are serialized
// upstream, so AgentState itself carries no locking.
//
// Invariants:
//   - TurnCounter strictly increases across the session's lifetime and is
//     never reset while the session is live.
//   - TurnCounter <= len(History): every counted turn is recorded, while
//     proactive openings are recorded without being counted.
//   - CurrentPhase is mutated only by the active decision agent.
type AgentState struct {
	UserID       string         `json:"userId"`       // Stable opaque session key
	TurnCounter  int            `json:"turnCounter"`  // Incremented exactly once per successful turn
	History      []Exchange     `json:"history"`      // Ordered, append-only turn records
	CurrentPhase string         `json:"currentPhase"` // Optional phase id (phase-driven agents only)
	Payload      map[string]any `json:"payload"`      // Open bookkeeping for decision agents and actions
}

// NewAgentState creates a fresh state for a user: counter zero, empty history,
// no phase. The initial phase, when a phase machine is configured, is assigned
// by the store's seeding hook rather than here.
func NewAgentState(userID string) *AgentState {
	return &AgentState{
		UserID:  userID,
		Payload: make(map[string]any),
	}
}

// RecordTurn appends a completed exchange and increments the turn counter.
// It must be called exactly once per successfully completed cycle; partial
// cycles never reach it, keeping retries idempotent for the caller.
func (s *AgentState) RecordTurn(instruction string, answer LLMAnswer) {
	s.AppendExchange(instruction, answer)
	s.TurnCounter++
}

// AppendExchange records an exchange without counting it as a turn. Used for
// proactive openings, which later turns must see in history but which do not
// advance the scripted turn ordinals.
func (s *AgentState) AppendExchange(instruction string, answer LLMAnswer) {
	s.History = append(s.History, Exchange{
		ID:          uuid.NewString(),
		Instruction: instruction,
		Answer:      answer,
		Timestamp:   time.Now().UTC(),
	})
}

// LastExchange returns the most recent history entry, if any.
func (s *AgentState) LastExchange() (Exchange, bool) {
	if len(s.History) == 0 {
		return Exchange{}, false
	}
	return s.History[len(s.History)-1], true
}

// GetPayload retrieves a payload value by key.
func (s *AgentState) GetPayload(key string) (any, bool) {
	v, ok := s.Payload[key]
	return v, ok
}

// SetPayload stores a payload value. Values are treated as immutable once
// stored; writers replace whole entries instead of mutating nested data.
func (s *AgentState) SetPayload(key string, value any) {
	if s.Payload == nil {
		s.Payload = make(map[string]any)
	}
	s.Payload[key] = value
}

// DeletePayload removes a payload entry.
func (s *AgentState) DeletePayload(key string) {
	delete(s.Payload, key)
}

// Clone creates a deep copy of the state. Stores hand out clones so a failed
// turn can never leak partial mutations into the canonical copy.
func (s *AgentState) Clone() *AgentState {
	clone := &AgentState{
		UserID:       s.UserID,
		TurnCounter:  s.TurnCounter,
		CurrentPhase: s.CurrentPhase,
		Payload:      make(map[string]any, len(s.Payload)),
	}

	if len(s.History) > 0 {
		clone.History = make([]Exchange, len(s.History))
		copy(clone.History, s.History)
	}

	for k, v := range s.Payload {
		clone.Payload[k] = v
	}

	return clone
}
