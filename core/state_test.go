package core

import "testing"

func TestAgentState_RecordTurn(t *testing.T) {
	s := NewAgentState("u1")

	if s.TurnCounter != 0 || len(s.History) != 0 {
		t.Fatalf("fresh state not empty: %+v", s)
	}

	s.RecordTurn("hi", NewLLMAnswer("hello"))
	s.RecordTurn("how are you", NewLLMAnswer("fine"))

	if s.TurnCounter != 2 {
		t.Fatalf("expected counter 2, got %d", s.TurnCounter)
	}
	if len(s.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(s.History))
	}
	if s.History[0].Instruction != "hi" || s.History[1].Instruction != "how are you" {
		t.Error("history out of insertion order")
	}
	if s.History[0].ID == "" || s.History[0].ID == s.History[1].ID {
		t.Error("exchanges should carry distinct ids")
	}

	last, ok := s.LastExchange()
	if !ok || last.Answer.Content != "fine" {
		t.Errorf("unexpected last exchange: %+v", last)
	}
}

func TestAgentState_PayloadAndClone(t *testing.T) {
	s := NewAgentState("u2")
	s.SetPayload("flag", true)
	s.CurrentPhase = "S1"
	s.RecordTurn("hi", NewLLMAnswer("hello"))

	clone := s.Clone()
	if clone == s {
		t.Error("Clone should be a different pointer")
	}

	clone.SetPayload("other", 1)
	clone.RecordTurn("again", NewLLMAnswer("sure"))
	clone.CurrentPhase = "S2"

	if _, exists := s.GetPayload("other"); exists {
		t.Error("original should not have clone's new key")
	}
	if s.TurnCounter != 1 || len(s.History) != 1 {
		t.Error("clone mutation leaked into original history")
	}
	if s.CurrentPhase != "S1" {
		t.Error("clone mutation leaked into original phase")
	}

	s.DeletePayload("flag")
	if _, exists := clone.GetPayload("flag"); !exists {
		t.Error("original mutation leaked into clone payload")
	}
}

func TestLLMAnswer_MergePayload(t *testing.T) {
	a := LLMAnswer{Content: "x"}
	a.MergePayload(map[string]any{"k": "v"})
	a.MergePayload(map[string]any{"k": "w", "n": 1})

	if a.Payload["k"] != "w" || a.Payload["n"] != 1 {
		t.Errorf("unexpected payload: %+v", a.Payload)
	}

	b := NewLLMAnswer("y")
	b.MergePayload(nil)
	if len(b.Payload) != 0 {
		t.Errorf("expected empty payload, got %+v", b.Payload)
	}
}
