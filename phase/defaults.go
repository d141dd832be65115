package phase

import "github.com/vitrei/parley/core"

// Built-in phase ids of the default media-literacy conversation flow.
const (
	PhaseOnboarding   = "S1"
	PhaseEngagement   = "S2"
	PhaseReactionWait = "S3"
	PhaseBelieves     = "S4a"
	PhaseSkeptical    = "S4b"
	PhaseUpset        = "S4c"
	PhaseDetached     = "S4d"
	PhaseReflection   = "S5"
	PhaseError        = "S_ERROR"
	PhaseEnd          = "S_END"
)

// DefaultGraph returns the built-in conversation flow: onboarding, engagement,
// a staged scene the user reacts to, one branch per observed reaction, shared
// reflection and closure. The repair phase is reachable from every non-terminal
// phase and leads back into engagement or straight to closure.
func DefaultGraph() Graph {
	return Graph{
		Initial: PhaseOnboarding,
		Error:   PhaseError,
		Phases: map[string]Phase{
			PhaseOnboarding: {
				Name:        "ONBOARDING",
				Description: "Begrüßung und Kennenlernen. Stelle dich kurz vor und baue eine lockere Gesprächsbasis auf.",
				Next:        []string{PhaseEngagement, PhaseError},
				Decide:      DecisionSpec{Type: core.GuidingInstructions, Action: "general_guidance"},
			},
			PhaseEngagement: {
				Name:        "ENGAGEMENT",
				Description: "Führe das Gespräch auf das Thema Medienkompetenz und halte den Nutzer im Dialog.",
				Next:        []string{PhaseReactionWait, PhaseError},
				Decide:      DecisionSpec{Type: core.GenerateAnswer},
			},
			PhaseReactionWait: {
				Name:        "REACTION_WAIT",
				Description: "Präsentiere die vorbereitete Szene und warte auf die emotionale Reaktion des Nutzers.",
				Next: []string{
					PhaseBelieves, PhaseSkeptical, PhaseUpset, PhaseDetached,
					PhaseEngagement, PhaseError,
				},
				Decide: DecisionSpec{Type: core.PromptAdaption},
			},
			PhaseBelieves: {
				Name:        "REACTION_BELIEVES",
				Description: "Der Nutzer glaubt den Inhalt. Hinterfrage vorsichtig und rege zum Prüfen von Quellen an.",
				Next:        []string{PhaseReflection, PhaseEngagement, PhaseError},
				Decide:      DecisionSpec{Type: core.GuidingInstructions, Action: "reaction_believes"},
			},
			PhaseSkeptical: {
				Name:        "REACTION_SKEPTICAL",
				Description: "Der Nutzer ist skeptisch. Bestärke das Hinterfragen und vertiefe die Prüfstrategien.",
				Next:        []string{PhaseReflection, PhaseEngagement, PhaseError},
				Decide:      DecisionSpec{Type: core.GuidingInstructions, Action: "reaction_skeptical"},
			},
			PhaseUpset: {
				Name:        "REACTION_UPSET",
				Description: "Der Nutzer ist aufgebracht. Beruhige das Gespräch und nimm die Emotion ernst.",
				Next:        []string{PhaseReflection, PhaseEngagement, PhaseError},
				Decide:      DecisionSpec{Type: core.GuidingInstructions, Action: "reaction_upset"},
			},
			PhaseDetached: {
				Name:        "REACTION_DETACHED",
				Description: "Der Nutzer wirkt abwesend. Hole ihn mit einer direkten Frage zurück ins Gespräch.",
				Next:        []string{PhaseReflection, PhaseEngagement, PhaseError},
				Decide:      DecisionSpec{Type: core.GuidingInstructions, Action: "reaction_detached"},
			},
			PhaseReflection: {
				Name:        "REFLECTION",
				Description: "Reflektiere gemeinsam, was der Nutzer aus der Szene mitnimmt.",
				Next:        []string{PhaseEnd, PhaseEngagement, PhaseError},
				Decide:      DecisionSpec{Type: core.GenerateAnswer},
			},
			PhaseError: {
				Name:        "REPAIR",
				Description: "Das Gespräch ist entgleist. Kläre Missverständnisse und kehre behutsam zum Ablauf zurück.",
				Next:        []string{PhaseEngagement, PhaseReactionWait, PhaseEnd},
				Decide:      DecisionSpec{Type: core.GuidingInstructions, Action: "repair"},
			},
			PhaseEnd: {
				Name:        "CLOSURE",
				Description: "Fasse das Gespräch zusammen und verabschiede dich.",
				Decide:      DecisionSpec{Type: core.ActionDispatch, Action: "path_prediction"},
			},
		},
	}
}

// MustDefault compiles the default graph and panics on failure. The default
// graph is maintained alongside its validation rules, so a failure here is a
// programming error.
func MustDefault() *Machine {
	m, err := New(DefaultGraph())
	if err != nil {
		panic(err)
	}
	return m
}
