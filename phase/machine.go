// Package phase implements the declarative conversation-phase graph used by
// phase-driven decision agents. A Graph is loaded once from configuration,
// validated structurally and compiled into an immutable Machine that is
// shared lock-free across all sessions.
//
// The machine itself never advances anything; decision agents read it to
// verify proposed transitions and to map the active phase onto a verdict.
// Disallowed transitions are repaired by redirecting to the designated error
// phase rather than failing the turn.
package phase

import (
	"fmt"
	"sort"

	"github.com/vitrei/parley/core"
)

// Payload keys the phase layer shares with selectors and decision agents.
const (
	// TargetKey carries an externally proposed transition target.
	TargetKey = "phase.target"
	// EnteredTurnKey records the turn counter value at the last phase entry.
	EnteredTurnKey = "phase.entered_turn"
)

// DecisionSpec deterministically maps a phase to the verdict a phase-driven
// agent emits while the conversation sits in that phase. An empty Type means
// plain generation.
type DecisionSpec struct {
	Type   core.DecisionType `json:"type,omitempty"`
	Action string            `json:"action,omitempty"`
}

// Phase is one named node of the conversation-flow graph. Description is
// opaque natural-language guidance passed through to the prompt layer
// untouched; the machine only interprets the structural fields.
type Phase struct {
	ID          string       `json:"-"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Next        []string     `json:"next"`
	Decide      DecisionSpec `json:"decide,omitempty"`
}

// Graph is the declarative phase-graph definition. Phases are keyed by id;
// Initial names the entry phase and Error the designated repair phase.
type Graph struct {
	Initial string           `json:"initial"`
	Error   string           `json:"error"`
	Phases  map[string]Phase `json:"phases"`
}

// Machine is a validated, immutable phase graph. Safe for concurrent use.
type Machine struct {
	initial string
	errorID string
	phases  map[string]Phase
}

// New validates the graph and compiles it into a Machine. Violations are
// configuration faults: the process must not accept traffic with a malformed
// graph.
func New(g Graph) (*Machine, error) {
	if len(g.Phases) == 0 {
		return nil, core.NewConfigurationFault("phase graph has no phases", nil)
	}
	if g.Initial == "" {
		return nil, core.NewConfigurationFault("phase graph declares no initial phase", nil)
	}
	if g.Error == "" {
		return nil, core.NewConfigurationFault("phase graph declares no error phase", nil)
	}

	phases := make(map[string]Phase, len(g.Phases))
	for id, p := range g.Phases {
		p.ID = id
		phases[id] = p
	}

	if _, ok := phases[g.Initial]; !ok {
		return nil, core.NewConfigurationFault(fmt.Sprintf("initial phase %q is not defined", g.Initial), nil)
	}
	if _, ok := phases[g.Error]; !ok {
		return nil, core.NewConfigurationFault(fmt.Sprintf("error phase %q is not defined", g.Error), nil)
	}

	m := &Machine{initial: g.Initial, errorID: g.Error, phases: phases}

	if err := m.validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// validate enforces the structural invariants of the graph.
func (m *Machine) validate() error {
	predecessors := make(map[string]int, len(m.phases))

	for id, p := range m.phases {
		for _, next := range p.Next {
			if _, ok := m.phases[next]; !ok {
				return core.NewConfigurationFault(
					fmt.Sprintf("phase %q references undefined transition target %q", id, next), nil)
			}
			predecessors[next]++
		}
		if p.Decide.Type != "" {
			if !p.Decide.Type.Valid() {
				return core.NewConfigurationFault(
					fmt.Sprintf("phase %q maps to unknown decision type %q", id, p.Decide.Type), nil)
			}
			if (p.Decide.Type == core.ActionDispatch || p.Decide.Type == core.GuidingInstructions) && p.Decide.Action == "" {
				return core.NewConfigurationFault(
					fmt.Sprintf("phase %q maps to decision type %s without a name", id, p.Decide.Type), nil)
			}
		}
	}

	// The declared initial phase must be the unique entry point.
	var roots []string
	for id := range m.phases {
		if predecessors[id] == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	if len(roots) != 1 || roots[0] != m.initial {
		return core.NewConfigurationFault(
			fmt.Sprintf("expected %q to be the only phase without predecessors, found %v", m.initial, roots), nil)
	}

	// Every phase must be reachable from the initial phase.
	visited := map[string]bool{m.initial: true}
	queue := []string{m.initial}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range m.phases[id].Next {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	for id := range m.phases {
		if !visited[id] {
			return core.NewConfigurationFault(
				fmt.Sprintf("phase %q is unreachable from initial phase %q", id, m.initial), nil)
		}
	}

	// The error phase must offer re-entry, not be a dead end.
	errPhase := m.phases[m.errorID]
	reenters := false
	for _, next := range errPhase.Next {
		if next != m.errorID {
			reenters = true
			break
		}
	}
	if !reenters {
		return core.NewConfigurationFault(
			fmt.Sprintf("error phase %q offers no way back into the graph", m.errorID), nil)
	}

	return nil
}

// Initial returns the declared entry phase id.
func (m *Machine) Initial() string { return m.initial }

// ErrorPhase returns the designated repair phase id.
func (m *Machine) ErrorPhase() string { return m.errorID }

// Phase looks up a phase definition by id.
func (m *Machine) Phase(id string) (Phase, bool) {
	p, ok := m.phases[id]
	return p, ok
}

// Allowed returns the transition targets permitted from a phase. The returned
// slice is a copy; callers may not mutate machine internals.
func (m *Machine) Allowed(from string) []string {
	p, ok := m.phases[from]
	if !ok || len(p.Next) == 0 {
		return nil
	}
	out := make([]string, len(p.Next))
	copy(out, p.Next)
	return out
}

// CanTransition reports whether the graph permits moving from one phase to
// another. Staying put is always permitted.
func (m *Machine) CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	p, ok := m.phases[from]
	if !ok {
		return false
	}
	for _, next := range p.Next {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a phase has an empty transition set.
func (m *Machine) IsTerminal(id string) bool {
	p, ok := m.phases[id]
	return ok && len(p.Next) == 0
}

// PhaseIDs returns all phase ids in deterministic order.
func (m *Machine) PhaseIDs() []string {
	ids := make([]string, 0, len(m.phases))
	for id := range m.phases {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
