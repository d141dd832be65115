package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/vitrei/parley/core"
)

// Request captures the normalized model input produced by the orchestrator:
// the assembled system prompt, the prior conversation and the instruction of
// the current turn.
type Request struct {
	System      string          `json:"system"`
	History     []core.Exchange `json:"history,omitempty"`
	Instruction string          `json:"instruction"`
	Stream      bool            `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model. For a streaming
// request, the partial Text fields concatenate to exactly the Text of the
// final response.
type Response struct {
	ID           string      `json:"id"`
	Partial      bool        `json:"partial"`
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason,omitempty"`
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name              string `json:"name"`
	Provider          string `json:"provider"` // "openai", "anthropic", "ollama", etc.
	SupportsStreaming bool   `json:"supports_streaming"`
}

// Model is the minimal interface the orchestrator needs to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Complete drives a non-streaming generation to completion and returns the
// final text. It is the convenience path for callers that have no use for
// partial output, such as decision agents.
func Complete(ctx context.Context, m Model, req Request) (string, error) {
	req.Stream = false

	respCh, errCh := m.Generate(ctx, req)

	var (
		final string
		found bool
	)

	for respCh != nil || errCh != nil {
		select {
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !resp.Partial {
				final = resp.Text
				found = true
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return "", err
			}
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if !found {
		return "", fmt.Errorf("model %q returned no final response", m.Info().Name)
	}

	return final, nil
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
type MockModel struct {
	info Info

	mu        sync.Mutex
	responses map[string]string
	err       error
	calls     int
	requests  []Request
}

// NewMockModel constructs a MockModel with streaming support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:              name,
			Provider:          provider,
			SupportsStreaming: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an instruction.
func (m *MockModel) AddResponse(instruction, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses[instruction] = response
}

// FailWith makes subsequent calls fail with err. Pass nil to heal the model.
func (m *MockModel) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.err = err
}

// Calls reports how many generations were attempted.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls
}

// Requests returns the requests seen so far, in call order.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Generate implements Model; emits optional streaming rune chunks then the
// final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.calls++
	m.requests = append(m.requests, req)
	failure := m.err
	full, ok := m.responses[req.Instruction]
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if failure != nil {
			errCh <- failure
			return
		}
		if req.Instruction == "" {
			errCh <- fmt.Errorf("no instruction provided")
			return
		}
		if !ok {
			full = fmt.Sprintf("Mock response to: %s", req.Instruction)
		}

		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Text: string(r)}:
				}
			}
		}

		respCh <- Response{
			Partial:      false,
			Text:         full,
			FinishReason: "stop",
		}
	}()

	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
