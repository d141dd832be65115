package action

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vitrei/parley/core"
	"github.com/vitrei/parley/logging"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// Logger receives per-invocation log records. Defaults to a no-op logger.
	Logger logging.Logger
}

// Registry holds the actions available for dispatch. Registration happens at
// startup; resolution and invocation are concurrent and read-only.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
	logger  *logging.ConversationLogger
}

// NewRegistry creates an empty registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Registry{
		actions: make(map[string]Action),
		logger:  logging.NewConversationLogger(opts.Logger).WithComponent("action"),
	}
}

// Register adds an action under its name. Registering a name twice is a
// configuration fault; use Replace for deliberate overrides.
func (r *Registry) Register(a Action) error {
	if a == nil || a.Name() == "" {
		return core.NewConfigurationFault("action must have a name", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[a.Name()]; exists {
		return core.NewConfigurationFault(fmt.Sprintf("action %q is already registered", a.Name()), nil)
	}

	r.actions[a.Name()] = a

	return nil
}

// Replace adds an action, overwriting any previous registration of the name.
func (r *Registry) Replace(a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.actions[a.Name()] = a
}

// Resolve looks up an action by name. Unknown names yield a recoverable
// unknown-action fault; the turn fails but the session state stays intact.
func (r *Registry) Resolve(name string) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.actions[name]
	if !ok {
		return nil, core.NewUnknownActionFault(name)
	}

	return a, nil
}

// Invoke resolves and executes an action for the current turn. Failures
// raised by the action propagate to the caller unmodified; unclassified
// errors count as upstream faults in the taxonomy.
func (r *Registry) Invoke(ctx context.Context, name string, inv Invocation) (core.LLMAnswer, error) {
	a, err := r.Resolve(name)
	if err != nil {
		return core.LLMAnswer{}, err
	}

	logger := r.logger
	if inv.State != nil {
		logger = logger.WithUser(inv.State.UserID)
	}

	start := time.Now()

	answer, err := a.Invoke(ctx, inv)

	logger.LogActionCall(name, time.Since(start), err)

	if err != nil {
		return core.LLMAnswer{}, err
	}

	return answer, nil
}

// Names returns the registered action names in deterministic order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
