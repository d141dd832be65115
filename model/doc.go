// Package model defines the provider-agnostic abstractions for the language
// models that answer conversation turns.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Guarantee that streamed fragments concatenate to the final text
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI, Anthropic, Ollama) implement the Model interface from
// this package so the orchestrator and decision agents remain decoupled from
// vendor SDKs. Cross-cutting behavior such as rate limiting wraps a Model
// rather than living inside providers.
package model
