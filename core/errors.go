package core

import (
	"errors"
	"fmt"
)

// FaultKind is the stable error classification surfaced to callers. Kinds map
// one-to-one onto the propagation policy: configuration faults are fatal at
// startup, unknown-action and upstream faults are recoverable per turn, and
// phase-transition faults never leave the decision layer.
type FaultKind string

const (
	// FaultConfiguration marks malformed phase graphs, unresolved agent or
	// action identifiers and missing required prompts. Fatal before traffic.
	FaultConfiguration FaultKind = "configuration"
	// FaultUnknownAction marks a decision naming an action absent from the
	// registry at dispatch time. Recoverable, state unchanged.
	FaultUnknownAction FaultKind = "unknown_action"
	// FaultUpstream marks a failed or timed-out model or action call.
	// Recoverable, state unchanged, safe to retry.
	FaultUpstream FaultKind = "upstream"
	// FaultPhaseTransition marks a transition not permitted by the phase
	// graph. Handled internally by redirecting to the error phase.
	FaultPhaseTransition FaultKind = "phase_transition"
)

// Fault is the structured error carried across component boundaries. It wraps
// an optional cause and exposes a stable kind plus message so transports can
// build caller-visible error envelopes without leaking stack traces.
type Fault struct {
	Kind    FaultKind
	Message string
	Err     error
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As chains.
func (f *Fault) Unwrap() error { return f.Err }

// NewConfigurationFault creates a fatal startup fault.
func NewConfigurationFault(msg string, cause error) *Fault {
	return &Fault{Kind: FaultConfiguration, Message: msg, Err: cause}
}

// NewUnknownActionFault creates a recoverable fault for an unresolved action.
func NewUnknownActionFault(name string) *Fault {
	return &Fault{Kind: FaultUnknownAction, Message: fmt.Sprintf("action %q is not registered", name)}
}

// NewUpstreamFault creates a recoverable fault for a failed model or action call.
func NewUpstreamFault(msg string, cause error) *Fault {
	return &Fault{Kind: FaultUpstream, Message: msg, Err: cause}
}

// NewPhaseTransitionFault creates the internal fault for a disallowed phase
// transition. It is logged and redirected, never surfaced to the caller.
func NewPhaseTransitionFault(from, to string) *Fault {
	return &Fault{Kind: FaultPhaseTransition, Message: fmt.Sprintf("transition %s -> %s is not permitted", from, to)}
}

// KindOf extracts the fault kind from an error chain. Errors outside the
// taxonomy report FaultUpstream, the conservative recoverable default.
func KindOf(err error) FaultKind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return FaultUpstream
}

// IsRecoverable reports whether the turn that produced err may be retried
// with unchanged state. Only configuration faults are fatal.
func IsRecoverable(err error) bool {
	return KindOf(err) != FaultConfiguration
}
