package session

import (
	"context"
	"sync"

	"github.com/vitrei/parley/core"
)

// Options configures session stores.
type Options struct {
	// InitialPhase is placed on freshly created states. Leave empty when no
	// phase machine is configured.
	InitialPhase string
}

// InMemoryStore is a volatile StateStore implementation keeping states in a
// process local map. It is safe for concurrent access and suited for tests,
// demos and single-instance deployments without restart durability.
type InMemoryStore struct {
	mu     sync.RWMutex
	states map[string]*core.AgentState
	opts   Options
}

// NewInMemoryStore constructs an empty in-memory state store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &InMemoryStore{
		states: make(map[string]*core.AgentState),
		opts:   opts,
	}
}

// GetOrCreate returns a copy of the stored state for userID, creating a
// fresh one on first contact.
func (s *InMemoryStore) GetOrCreate(_ context.Context, userID string) (*core.AgentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[userID]
	if !ok {
		state = core.NewAgentState(userID)
		state.CurrentPhase = s.opts.InitialPhase
		s.states[userID] = state
	}

	return state.Clone(), nil
}

// Save stores a copy of the state snapshot.
func (s *InMemoryStore) Save(_ context.Context, state *core.AgentState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.UserID] = state.Clone()

	return nil
}

// Delete evicts the state for userID. Deleting an absent state is a no-op.
func (s *InMemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, userID)

	return nil
}

// Len reports the number of stored sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.states)
}
