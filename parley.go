// Package parley provides a high-level façade over the conversation
// orchestrator and its collaborators (decision agents, prompt material,
// actions, session stores). Most embedders interact with this package by:
//  1. Creating a Parley via New() over a model (optionally overriding the
//     default in-memory collaborators)
//  2. Registering domain actions for dispatch
//  3. Handling turns synchronously (Handle) or streamed (HandleStream)
//
// The façade delegates turn execution to orchestrator.Orchestrator while
// keeping setup concise. All defaults are safe for local development and
// testing; deployments wanting config files, HTTP and metrics use the
// loader and server packages instead.
package parley

import (
	"context"
	"time"

	"github.com/vitrei/parley/action"
	"github.com/vitrei/parley/core"
	"github.com/vitrei/parley/logging"
	"github.com/vitrei/parley/model"
	"github.com/vitrei/parley/orchestrator"
	"github.com/vitrei/parley/pipeline"
	"github.com/vitrei/parley/prompt"
	"github.com/vitrei/parley/session"
)

// Options configures the Parley instance.
type Options struct {
	// Language selects the prompt material. Defaults to "german".
	Language string

	// Provider supplies the prompt material. Defaults to the bundled sets.
	Provider prompt.Provider

	// Agent decides the per-turn strategy. Defaults to answering every
	// instruction by plain generation.
	Agent core.DecisionAgent

	// Store persists session state. Defaults to the in-memory store.
	Store core.StateStore

	// Registry resolves dispatched actions. Defaults to a registry holding
	// the builtins.
	Registry *action.Registry

	// Pipeline wraps turns with pre and post processors.
	Pipeline *pipeline.Pipeline

	// ModelTimeout bounds each generation call.
	ModelTimeout time.Duration

	// Observer receives turn-level measurements, e.g. a metrics collector.
	Observer orchestrator.Observer

	// TurnRecorded receives the session history after each recorded turn.
	TurnRecorded func(userID string, history []core.Exchange)

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Parley is the high-level façade bundling the orchestrator with its
// collaborators.
type Parley struct {
	orch     core.Orchestrator
	registry *action.Registry
	store    core.StateStore
}

// New creates a Parley instance over the given model with optional
// overrides. Any unset collaborator is initialized with an in-memory
// implementation.
func New(m model.Model, optFns ...func(o *Options)) *Parley {
	opts := Options{
		Language: "german",
		Provider: prompt.NewDefaultProvider(),
		Store:    session.NewInMemoryStore(),
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	registry := opts.Registry
	if registry == nil {
		registry = action.NewRegistry(func(o *action.RegistryOptions) {
			o.Logger = opts.Logger
		})
		for _, a := range action.Builtins() {
			// Names are unique within Builtins; registering cannot fail.
			_ = registry.Register(a)
		}
	}

	orch := orchestrator.New(m, func(o *orchestrator.Options) {
		o.Store = opts.Store
		o.Registry = registry
		o.Composer = prompt.NewComposer(opts.Provider, opts.Language)
		o.Logger = opts.Logger
		o.TurnRecorded = opts.TurnRecorded
		if opts.Agent != nil {
			o.Agent = opts.Agent
		}
		if opts.Pipeline != nil {
			o.Pipeline = opts.Pipeline
		}
		if opts.ModelTimeout > 0 {
			o.ModelTimeout = opts.ModelTimeout
		}
		if opts.Observer != nil {
			o.Observer = opts.Observer
		}
	})

	return &Parley{orch: orch, registry: registry, store: opts.Store}
}

// RegisterAction adds an action to the dispatch registry.
func (p *Parley) RegisterAction(a action.Action) error { return p.registry.Register(a) }

// Handle runs one full turn and returns the final answer.
func (p *Parley) Handle(ctx context.Context, userID, instruction string) (core.LLMAnswer, error) {
	return p.orch.Handle(ctx, userID, instruction)
}

// HandleStream runs one full turn, forwarding content fragments as they are
// produced. See core.Orchestrator for the channel contract.
func (p *Parley) HandleStream(ctx context.Context, userID, instruction string) (<-chan core.Delta, <-chan error) {
	return p.orch.HandleStream(ctx, userID, instruction)
}

// HandleProactive opens a conversation from the bot's side using the
// configured proactive prompt.
func (p *Parley) HandleProactive(ctx context.Context, userID string) (core.LLMAnswer, error) {
	return p.orch.HandleProactive(ctx, userID)
}

// HandleProactiveStream is the streaming variant of HandleProactive.
func (p *Parley) HandleProactiveStream(ctx context.Context, userID string) (<-chan core.Delta, <-chan error) {
	return p.orch.HandleProactiveStream(ctx, userID)
}

// Reset evicts the user's session so the next turn starts fresh.
func (p *Parley) Reset(ctx context.Context, userID string) error {
	return p.orch.Reset(ctx, userID)
}
