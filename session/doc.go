// Package session houses concrete implementations of the core.StateStore.
// The interface itself (and the AgentState struct) live in the core package
// to centralize domain contracts. Keeping only implementations here prevents
// higher level packages from depending on concrete storage.
//
// Every implementation obeys the store contract: states cross the boundary
// as deep copies in both directions, so a caller can never alias the stored
// representation.
package session
