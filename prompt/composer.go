package prompt

import (
	"strings"

	"github.com/vitrei/parley/core"
	"github.com/vitrei/parley/internal/util"
)

// DirectiveKey is the decision payload key whose value, when present, is
// appended to an adapted system prompt as a standalone directive.
const DirectiveKey = "directive"

// Composer assembles the concrete prompts for one configured language. It is
// stateless across turns; adaptations apply to a single call only.
type Composer struct {
	provider Provider
	language string
}

// NewComposer fixes a provider and language for prompt assembly.
func NewComposer(provider Provider, language string) *Composer {
	return &Composer{provider: provider, language: language}
}

// Language returns the configured conversation language.
func (c *Composer) Language() string { return c.language }

// System renders the system prompt. The prompt text may carry template
// placeholders resolved from data, e.g. a user profile summary. Configured
// few-shot examples follow the rendered prompt as one block per line.
func (c *Composer) System(data map[string]any) (string, error) {
	set, err := c.provider.Resolve(c.language)
	if err != nil {
		return "", err
	}

	rendered, err := util.RenderTemplate(set.SystemPrompt(), data)
	if err != nil {
		return "", core.NewConfigurationFault("render system prompt", err)
	}

	if len(set.Examples) > 0 {
		rendered += "\n\n" + strings.Join(set.Examples, "\n")
	}

	return rendered, nil
}

// Adapted renders the system prompt with the decision payload layered over
// data, then appends the payload's directive, if any, as a separate block.
// The adaptation is used for exactly one model call.
func (c *Composer) Adapted(data, payload map[string]any) (string, error) {
	merged := make(map[string]any, len(data)+len(payload))
	for k, v := range data {
		merged[k] = v
	}
	for k, v := range payload {
		merged[k] = v
	}

	rendered, err := c.System(merged)
	if err != nil {
		return "", err
	}

	if directive, ok := payload[DirectiveKey].(string); ok && directive != "" {
		rendered += "\n\n" + directive
	}

	return rendered, nil
}

// Guide appends the named guiding-instruction block to the instruction,
// separated by a single space.
func (c *Composer) Guide(instruction, name string) (string, error) {
	text, err := Guidance(c.provider, c.language, name)
	if err != nil {
		return "", err
	}

	return instruction + " " + text, nil
}

// Proactive returns the hidden kickoff instruction.
func (c *Composer) Proactive() (string, error) {
	set, err := c.provider.Resolve(c.language)
	if err != nil {
		return "", err
	}

	if set.Proactive == "" {
		return "", core.NewConfigurationFault("no proactive prompt for language "+c.language, nil)
	}

	return set.Proactive, nil
}
