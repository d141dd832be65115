// Package orchestrator runs the per-turn decision cycle that turns a user
// instruction into an answer.
//
// One turn is: load the session's working state, run the pre-processing
// chain, obtain a NextActionDecision, execute the chosen strategy (plain
// generation, adapted prompt, guided instruction or a dispatched action),
// run the post-processing chain, record the exchange and save the state.
// Failed turns save nothing: the canonical state is only replaced after the
// full cycle succeeded, so a timeout or unknown action leaves the session
// exactly as it was.
//
// Turns within one session are serialized on a per-user lock held for the
// whole cycle; distinct sessions run fully parallel. Streamed and
// non-streamed turns produce identical final content for identical state and
// instruction.
package orchestrator
