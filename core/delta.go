package core

// Delta represents a polymorphic fragment of a streamed turn. Concrete delta
// types implement the unexported isDelta marker enabling a closed set.
//
// A stream consists of zero or more TextDelta values whose concatenation
// equals the final answer's content, followed by exactly one AnswerDelta
// carrying the complete LLMAnswer for history and payload delivery.
type Delta interface{ isDelta() }

// TextDelta is an incremental content fragment.
type TextDelta struct {
	Text string // Fragment of the answer content, in production order
}

// isDelta implements the Delta interface for TextDelta.
func (TextDelta) isDelta() {}

// AnswerDelta terminates a stream with the complete answer.
type AnswerDelta struct {
	Answer LLMAnswer // Full content plus payload, as recorded in history
}

// isDelta implements the Delta interface for AnswerDelta.
func (AnswerDelta) isDelta() {}
