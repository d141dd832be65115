// Package userinfo learns a per-user profile from finished conversations.
//
// Extraction runs decoupled from the turn path: after a turn commits, its
// history snapshot is queued on a background worker, a model distills the
// facts the user explicitly mentioned into a Fragment, and the fragment is
// merged into the persistent profile. A failing extraction costs that one
// update and nothing else.
//
// ProfileInjector closes the loop by surfacing the stored profile to prompt
// templates at the start of each turn.
package userinfo
