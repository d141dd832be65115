package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/vitrei/parley/core"
)

// FileProvider serves prompt sets from a JSON file keyed by language and
// agent profile:
//
//	{
//	  "german": {
//	    "simple": { "system_prompt": [...], "proactive_prompt": "...", "guiding_instructions": {...} }
//	  }
//	}
//
// The file is read once at construction; editing it requires a restart.
type FileProvider struct {
	profile string
	sets    map[string]Set
}

// NewFileProvider loads the prompt file and fixes the agent profile to read
// sets from. IO and decoding problems are configuration faults.
func NewFileProvider(path, profile string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.NewConfigurationFault(fmt.Sprintf("read prompt file %q", path), err)
	}

	var raw map[string]map[string]Set
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, core.NewConfigurationFault(fmt.Sprintf("decode prompt file %q", path), err)
	}

	sets := make(map[string]Set, len(raw))
	for language, profiles := range raw {
		set, ok := profiles[profile]
		if !ok {
			continue
		}
		sets[language] = set
	}

	if len(sets) == 0 {
		return nil, core.NewConfigurationFault(
			fmt.Sprintf("prompt file %q defines no sets for profile %q", path, profile), nil)
	}

	return &FileProvider{profile: profile, sets: sets}, nil
}

// Profile returns the agent profile the provider was fixed to.
func (p *FileProvider) Profile() string { return p.profile }

// Resolve implements Provider.
func (p *FileProvider) Resolve(language string) (Set, error) {
	set, ok := p.sets[language]
	if !ok {
		return Set{}, core.NewConfigurationFault(
			fmt.Sprintf("no prompts for language %q and profile %q", language, p.profile), nil)
	}
	return set, nil
}

// Languages implements Provider.
func (p *FileProvider) Languages() []string {
	langs := make([]string, 0, len(p.sets))
	for lang := range p.sets {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
