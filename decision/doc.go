// Package decision contains the decision agents that pick the execution
// strategy for each conversation turn. The package focuses on three
// concerns:
//
//  1. The pass-through agent that always chooses plain generation
//     (ConversationOnly)
//  2. Deterministic turn scripting for demos and scripted studies (Scripted)
//  3. Phase-driven decisions over a validated phase graph (PhaseAgent),
//     with transition targets proposed by a rule chain or a model-backed
//     selector (LLMSelector)
//
// Design principles:
//   - Agents only touch the AgentState they are handed; cross-session state
//     lives behind the orchestrator
//   - Disallowed phase transitions never fail a turn; they redirect to the
//     graph's error phase
//   - Model calls honor the caller's context and degrade to staying in the
//     current phase when replies cannot be parsed
package decision
