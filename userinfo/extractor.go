package userinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vitrei/parley/core"
	"github.com/vitrei/parley/internal/util"
	"github.com/vitrei/parley/model"
)

// The extraction prompt is German like the rest of the conversation surface
// and asks for exactly the JSON shape Fragment decodes.
const extractionSystemPrompt = "Du extrahierst Informationen über Jugendliche aus Gesprächen über Medienkompetenz."

const extractionPromptFormat = `Du analysierst Gespräche mit Jugendlichen zwischen 14-18 Jahren zum Thema Fake News und Medienkompetenz.

Gesprächsverlauf:
%s

Extrahiere nur explizit erwähnte Informationen als JSON:

{
    "age": "Alter als Zahl oder null",
    "gender": "Geschlecht oder null",
    "location": "Wohnort/Stadt oder null",
    "school_type": "Schultyp (Gymnasium, Realschule, etc.) oder null",
    "grade": "Klassenstufe oder null",
    "preferred_social_media": ["Instagram", "TikTok", "etc."],
    "daily_internet_hours": "Stunden pro Tag oder null",
    "news_sources": ["wo sie Nachrichten lesen/schauen"],
    "fact_checking_awareness": "hoch/mittel/niedrig oder null",
    "source_verification_habits": "beschreibung oder null",
    "critical_thinking_level": "hoch/mittel/niedrig oder null"
}

Wichtig: NUR explizit erwähnte Fakten extrahieren, keine Vermutungen!`

// Transcript renders a session history in the line format the extraction
// prompt expects: one "User:" and one "Bot:" line per exchange.
func Transcript(history []core.Exchange) string {
	var b strings.Builder
	for _, ex := range history {
		b.WriteString("User: " + ex.Instruction + "\n")
		b.WriteString("Bot: " + ex.Answer.Content + "\n")
	}
	return strings.TrimSpace(b.String())
}

// Extractor distills profile facts out of a conversation transcript.
type Extractor interface {
	Extract(ctx context.Context, transcript string) (Fragment, error)
}

// ModelExtractor asks a language model for the facts. Replies are free form;
// the first JSON object found in the reply is decoded into a Fragment.
type ModelExtractor struct {
	model model.Model
}

// NewModelExtractor creates an extractor backed by m.
func NewModelExtractor(m model.Model) *ModelExtractor {
	return &ModelExtractor{model: m}
}

// Extract runs one extraction pass over the transcript.
func (e *ModelExtractor) Extract(ctx context.Context, transcript string) (Fragment, error) {
	reply, err := model.Complete(ctx, e.model, model.Request{
		System:      extractionSystemPrompt,
		Instruction: fmt.Sprintf(extractionPromptFormat, transcript),
	})
	if err != nil {
		return Fragment{}, fmt.Errorf("extraction model call: %w", err)
	}

	raw, ok := util.ExtractJSONObject(reply)
	if !ok {
		return Fragment{}, errors.New("no JSON object in extraction reply")
	}

	var f Fragment
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return Fragment{}, fmt.Errorf("decode extraction reply: %w", err)
	}

	return f, nil
}
