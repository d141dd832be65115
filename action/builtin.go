package action

import (
	"context"

	"github.com/vitrei/parley/core"
)

// Parrot echoes the inbound instruction back to the user. It exercises the
// dispatch path end to end without external dependencies.
type Parrot struct{}

func (Parrot) Name() string { return "parrot" }

func (Parrot) Description() string {
	return "Wiederholt die letzte Instruction des Nutzers wortwörtlich."
}

func (Parrot) Invoke(_ context.Context, inv Invocation) (core.LLMAnswer, error) {
	return core.NewLLMAnswer("Deine Instruction war: " + inv.Instruction), nil
}

// PathRecommendation recommends an educational path. The recommendation is fixed
// for now; a model-backed variant can replace it via the registry without
// touching callers.
type PathRecommendation struct{}

func (PathRecommendation) Name() string { return "path_prediction" }

func (PathRecommendation) Description() string {
	return "Empfehle einen Bildungspfad, wie die Person an den gewünschten Beruf kommt."
}

func (PathRecommendation) Invoke(_ context.Context, _ Invocation) (core.LLMAnswer, error) {
	return core.LLMAnswer{
		Content: "Du musst Informatik an der HKA studieren!",
		Payload: map[string]any{
			"type": "educationalPath",
			"data": map[string]any{
				"title":       "Informatik",
				"description": "Lorem Ipsum",
			},
		},
	}, nil
}

// Builtins returns the actions every default deployment registers.
func Builtins() []Action {
	return []Action{Parrot{}, PathRecommendation{}}
}
