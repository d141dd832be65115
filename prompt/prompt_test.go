package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitrei/parley/core"
)

func TestDefaultSets_CoverBuiltinGuidance(t *testing.T) {
	p := NewDefaultProvider()

	require.Equal(t, []string{"german"}, p.Languages())

	referenced := []string{
		"general_guidance", "location", "repair",
		"reaction_believes", "reaction_skeptical", "reaction_upset", "reaction_detached",
	}
	require.NoError(t, Validate(p, "german", referenced))
}

func TestValidate_Errors(t *testing.T) {
	p := NewStaticProvider(map[string]Set{
		"german": {System: []string{"Du bist ein Testassistent."}},
	})

	err := Validate(p, "english", nil)
	require.Error(t, err)
	assert.Equal(t, core.FaultConfiguration, core.KindOf(err))

	err = Validate(p, "german", []string{"missing_block"})
	require.Error(t, err)
	assert.Equal(t, core.FaultConfiguration, core.KindOf(err))

	empty := NewStaticProvider(map[string]Set{"german": {System: []string{"  "}}})
	err = Validate(empty, "german", nil)
	require.Error(t, err)
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.json")
	data := []byte(`{
		"german": {
			"simple": {
				"system_prompt": ["Du bist ein Assistent.", "Antworte knapp."],
				"proactive_prompt": "Begrüße den Nutzer.",
				"guiding_instructions": {"general_guidance": "Bleib beim Thema."}
			},
			"rag": {
				"system_prompt": ["Du bist ein Rechercheassistent."],
				"retriever_prompt": "Formuliere eine Suchanfrage."
			}
		}
	}`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	p, err := NewFileProvider(path, "simple")
	require.NoError(t, err)
	assert.Equal(t, "simple", p.Profile())

	set, err := p.Resolve("german")
	require.NoError(t, err)
	assert.Equal(t, "Du bist ein Assistent. Antworte knapp.", set.SystemPrompt())
	assert.Equal(t, "Begrüße den Nutzer.", set.Proactive)

	rag, err := NewFileProvider(path, "rag")
	require.NoError(t, err)
	ragSet, err := rag.Resolve("german")
	require.NoError(t, err)
	assert.Equal(t, "Formuliere eine Suchanfrage.", ragSet.Retriever)

	_, err = NewFileProvider(path, "opra")
	require.Error(t, err)
	assert.Equal(t, core.FaultConfiguration, core.KindOf(err))

	_, err = NewFileProvider(filepath.Join(t.TempDir(), "gone.json"), "simple")
	require.Error(t, err)
}

func TestComposer_SystemAndGuide(t *testing.T) {
	p := NewStaticProvider(map[string]Set{
		"german": {
			System:    []string{"Du bist ein Assistent.", "Profil: {{default \"unbekannt\" .profile}}"},
			Proactive: "Sag hallo.",
			Guidance:  map[string]string{"general_guidance": "Stelle genau eine Frage."},
		},
	})
	c := NewComposer(p, "german")

	system, err := c.System(nil)
	require.NoError(t, err)
	assert.Equal(t, "Du bist ein Assistent. Profil: unbekannt", system)

	system, err = c.System(map[string]any{"profile": "Schülerin, 16"})
	require.NoError(t, err)
	assert.Contains(t, system, "Profil: Schülerin, 16")

	guided, err := c.Guide("Wie erkenne ich Fakes?", "general_guidance")
	require.NoError(t, err)
	assert.Equal(t, "Wie erkenne ich Fakes? Stelle genau eine Frage.", guided)

	_, err = c.Guide("Hallo", "unknown")
	require.Error(t, err)
	assert.Equal(t, core.FaultConfiguration, core.KindOf(err))

	proactive, err := c.Proactive()
	require.NoError(t, err)
	assert.Equal(t, "Sag hallo.", proactive)
}

func TestComposer_Adapted(t *testing.T) {
	p := NewStaticProvider(map[string]Set{
		"german": {System: []string{"Du bist ein Assistent."}},
	})
	c := NewComposer(p, "german")

	adapted, err := c.Adapted(nil, map[string]any{DirectiveKey: "Präsentiere jetzt die Szene."})
	require.NoError(t, err)
	assert.Equal(t, "Du bist ein Assistent.\n\nPräsentiere jetzt die Szene.", adapted)

	adapted, err = c.Adapted(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Du bist ein Assistent.", adapted, "no payload leaves the prompt untouched")
}

func TestComposer_SystemAppendsExamples(t *testing.T) {
	p := NewStaticProvider(map[string]Set{
		"german": {
			System:   []string{"Du bist ein Assistent."},
			Examples: []string{"Nutzer: Hi. Du: Hallo!", "Nutzer: Danke. Du: Gerne!"},
		},
	})
	c := NewComposer(p, "german")

	system, err := c.System(nil)
	require.NoError(t, err)
	assert.Equal(t, "Du bist ein Assistent.\n\nNutzer: Hi. Du: Hallo!\nNutzer: Danke. Du: Gerne!", system)
}
