package core

// LLMAnswer is the uniform result envelope produced by a model generation or
// by a dispatched action. Content may be empty but is never absent; Payload
// carries arbitrary structured data for the transport layer to forward.
type LLMAnswer struct {
	Content string         `json:"content"`
	Payload map[string]any `json:"payload,omitempty"`
}

// NewLLMAnswer creates an answer with the given content and an empty payload.
func NewLLMAnswer(content string) LLMAnswer {
	return LLMAnswer{Content: content, Payload: map[string]any{}}
}

// MergePayload copies the given entries into the answer's payload,
// overwriting existing keys. A nil receiver payload is allocated on demand.
func (a *LLMAnswer) MergePayload(entries map[string]any) {
	if len(entries) == 0 {
		return
	}
	if a.Payload == nil {
		a.Payload = make(map[string]any, len(entries))
	}
	for k, v := range entries {
		a.Payload[k] = v
	}
}
