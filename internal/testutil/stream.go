package testutil

import (
	"strings"

	"github.com/vitrei/parley/core"
)

// DrainStream consumes a delta stream to completion and reports what it saw:
// the text fragments concatenated in arrival order, the recorded answer (nil
// when the turn never produced one) and the terminal error.
func DrainStream(deltas <-chan core.Delta, errs <-chan error) (string, *core.LLMAnswer, error) {
	var text strings.Builder
	var answer *core.LLMAnswer

	for delta := range deltas {
		switch d := delta.(type) {
		case core.TextDelta:
			text.WriteString(d.Text)
		case core.AnswerDelta:
			a := d.Answer
			answer = &a
		}
	}

	return text.String(), answer, <-errs
}
