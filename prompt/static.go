package prompt

import (
	"fmt"
	"sort"

	"github.com/vitrei/parley/core"
)

// StaticProvider serves prompt sets from memory. It backs the bundled
// defaults and is handy for tests.
type StaticProvider struct {
	sets map[string]Set
}

// NewStaticProvider wraps the given per-language sets.
func NewStaticProvider(sets map[string]Set) *StaticProvider {
	copied := make(map[string]Set, len(sets))
	for lang, set := range sets {
		copied[lang] = set
	}
	return &StaticProvider{sets: copied}
}

// NewDefaultProvider returns a provider with the bundled German material.
func NewDefaultProvider() *StaticProvider {
	return NewStaticProvider(DefaultSets())
}

// Resolve implements Provider.
func (p *StaticProvider) Resolve(language string) (Set, error) {
	set, ok := p.sets[language]
	if !ok {
		return Set{}, core.NewConfigurationFault(fmt.Sprintf("no prompts for language %q", language), nil)
	}
	return set, nil
}

// Languages implements Provider.
func (p *StaticProvider) Languages() []string {
	langs := make([]string, 0, len(p.sets))
	for lang := range p.sets {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// DefaultSets returns the bundled prompt material. It covers every guidance
// name the built-in phase graph and decision agents reference.
func DefaultSets() map[string]Set {
	return map[string]Set{
		"german": {
			System: []string{
				"Du bist ein freundlicher Gesprächspartner für Jugendliche und junge Erwachsene.",
				"Du führst lockere Gespräche über Medien, Nachrichten und soziale Netzwerke und hilfst dabei, Inhalte kritisch einzuordnen.",
				"Antworte kurz, natürlich und auf Deutsch. Stelle höchstens eine Frage pro Antwort.",
			},
			Proactive: "Eröffne das Gespräch: Begrüße dein Gegenüber locker, stelle dich kurz vor und stelle eine einfache Einstiegsfrage.",
			Guidance: map[string]string{
				"general_guidance":  "Bleib beim Thema des Nutzers, antworte knapp und stelle genau eine weiterführende Frage.",
				"location":          "Frage beiläufig, aus welcher Stadt oder Region die Person kommt, und gehe auf die Antwort ein.",
				"repair":            "Das Gespräch ist durcheinander geraten. Entschuldige dich kurz, fasse zusammen, wo ihr wart, und stelle eine einfache Anschlussfrage.",
				"reaction_believes": "Die Person glaubt den gezeigten Inhalt. Frage behutsam, woran man erkennen könnte, ob er stimmt, ohne zu belehren.",
				"reaction_skeptical": "Die Person ist skeptisch. Bestärke sie darin und frage, wie sie die Echtheit konkret prüfen würde.",
				"reaction_upset":    "Die Person ist aufgebracht. Nimm die Reaktion ernst, beruhige das Gespräch und biete an, den Inhalt gemeinsam einzuordnen.",
				"reaction_detached": "Die Person wirkt abwesend. Stelle eine direkte, leicht zu beantwortende Frage zum gezeigten Inhalt.",
			},
		},
	}
}
