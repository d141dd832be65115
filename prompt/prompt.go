// Package prompt supplies the language-scoped prompt material for
// conversations: the system prompt, the proactive kickoff prompt and the
// named guiding-instruction blocks a decision agent can inject into a turn.
//
// Material is resolved through a Provider (bundled defaults or a JSON file
// keyed by language and agent profile) and assembled per turn by a Composer.
package prompt

import (
	"fmt"
	"strings"

	"github.com/vitrei/parley/core"
)

// Set is the prompt material for one language and agent profile.
type Set struct {
	// System holds the system prompt fragments, joined with single spaces.
	System []string `json:"system_prompt"`
	// Proactive is the hidden instruction used when the backend opens the
	// conversation without user input.
	Proactive string `json:"proactive_prompt"`
	// Guidance maps guiding-instruction names to their text blocks.
	Guidance map[string]string `json:"guiding_instructions"`
	// Examples are few-shot snippets appended to the rendered system prompt.
	Examples []string `json:"examples,omitempty"`
	// Retriever is the retrieval query prompt of RAG-profile deployments.
	Retriever string `json:"retriever_prompt,omitempty"`
	// Decision optionally overrides the prompt used by model-backed
	// decision agents.
	Decision string `json:"decision_prompt,omitempty"`
}

// SystemPrompt returns the joined system prompt.
func (s Set) SystemPrompt() string {
	return strings.Join(s.System, " ")
}

// Provider resolves prompt material per language. Implementations are
// read-only after construction and safe for concurrent use.
type Provider interface {
	// Resolve returns the prompt set for a language. Unknown languages are
	// configuration faults.
	Resolve(language string) (Set, error)

	// Languages returns the languages the provider carries material for.
	Languages() []string
}

// Guidance resolves a named guiding-instruction block for a language.
// An unresolved name is a configuration fault: the deployment's prompt
// material does not cover what its decision agents reference.
func Guidance(p Provider, language, name string) (string, error) {
	set, err := p.Resolve(language)
	if err != nil {
		return "", err
	}

	text, ok := set.Guidance[name]
	if !ok {
		return "", core.NewConfigurationFault(
			fmt.Sprintf("guiding instruction %q is not defined for language %q", name, language), nil)
	}

	return text, nil
}

// Validate checks that a provider carries a usable set for the language and
// that every referenced guidance name resolves. Called once at startup.
func Validate(p Provider, language string, guidanceNames []string) error {
	set, err := p.Resolve(language)
	if err != nil {
		return err
	}

	if strings.TrimSpace(set.SystemPrompt()) == "" {
		return core.NewConfigurationFault(
			fmt.Sprintf("language %q has an empty system prompt", language), nil)
	}

	for _, name := range guidanceNames {
		if _, err := Guidance(p, language, name); err != nil {
			return err
		}
	}

	return nil
}
