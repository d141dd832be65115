// Package action implements the dispatch subsystem for turns whose decision
// bypasses plain generation: named capabilities that produce the turn's answer
// themselves instead of the language model.
//
// Actions are registered once at startup under a unique name and resolved per
// turn by the orchestrator. An action receives the live turn (session state
// plus the inbound instruction) and returns a complete answer, optionally with
// a structured payload for the client.
package action

import (
	"context"

	"github.com/vitrei/parley/core"
)

// Invocation carries the live turn an action runs in. State is the working
// copy owned by the current turn; mutations to its payload survive only if
// the turn completes successfully.
type Invocation struct {
	// State is the session state as of the start of the turn.
	State *core.AgentState
	// Instruction is the inbound user instruction of the current turn.
	Instruction string
}

// Action is a named capability that produces a turn's answer without calling
// the language model.
//
// Implementations should:
//   - Use stable snake_case names; the name is the registry key and appears
//     verbatim in decisions.
//   - Be safe for concurrent use; one instance serves all sessions.
//   - Return quickly or honor ctx cancellation when doing remote work.
type Action interface {
	// Name returns the unique registry key for this action.
	Name() string

	// Description returns a short natural-language description. Decision
	// agents that pick actions via a model receive it as part of their
	// prompt.
	Description() string

	// Invoke produces the answer for the current turn.
	Invoke(ctx context.Context, inv Invocation) (core.LLMAnswer, error)
}

// Func adapts a plain function to the Action interface.
type Func struct {
	name        string
	description string
	fn          func(ctx context.Context, inv Invocation) (core.LLMAnswer, error)
}

// NewFunc constructs an Action from an explicit name, description and
// implementation.
func NewFunc(name, description string, fn func(ctx context.Context, inv Invocation) (core.LLMAnswer, error)) *Func {
	return &Func{name: name, description: description, fn: fn}
}

// Name returns the unique registry key.
func (f *Func) Name() string { return f.name }

// Description returns the short description shown to decision agents.
func (f *Func) Description() string { return f.description }

// Invoke calls the wrapped function.
func (f *Func) Invoke(ctx context.Context, inv Invocation) (core.LLMAnswer, error) {
	return f.fn(ctx, inv)
}
