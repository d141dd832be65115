// Package core provides the foundational domain types and contracts used by
// Parley. It defines the core abstractions for:
//
//   - AgentState (per-session conversational memory, counters and phase)
//   - LLMAnswer (the uniform result envelope for generations and actions)
//   - NextActionDecision (the per-turn verdict produced by a decision agent)
//   - DecisionAgent (pluggable state -> verdict strategy)
//   - StateStore (pluggable persistence for per-user agent state)
//   - Fault (the error taxonomy separating fatal and recoverable failures)
//
// The package intentionally keeps implementation concerns (persistence,
// orchestration, concrete agents, model providers) out of scope, exposing
// small interfaces to enable custom backends and extensions. All exported
// identifiers include concise documentation to aid discoverability and
// external consumption.
package core
