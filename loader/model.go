package loader

import (
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	openaisdk "github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"

	"github.com/vitrei/parley/config"
	"github.com/vitrei/parley/core"
	"github.com/vitrei/parley/model"
	"github.com/vitrei/parley/model/anthropic"
	"github.com/vitrei/parley/model/ollama"
	"github.com/vitrei/parley/model/openai"
)

// buildModel constructs the configured provider, decorated with the rate
// limiter when one is configured.
func buildModel(cfg config.ModelConfig) (model.Model, error) {
	var m model.Model

	switch cfg.Provider {
	case "mock":
		name := cfg.Name
		if name == "" {
			name = "mock"
		}
		m = model.NewMockModel(name, "mock")

	case "ollama":
		m = ollama.NewModel(cfg.Name, func(o *ollama.Options) {
			o.Hosts = cfg.Hosts
			o.Temperature = cfg.Temperature
		})

	case "openai":
		fn := func(o *openai.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = cfg.MaxTokens
			}
		}
		if cfg.APIKey != "" {
			client := openaisdk.NewClient(openaioption.WithAPIKey(cfg.APIKey))
			m = openai.NewModelFromClient(&client, fn)
		} else {
			m = openai.NewModel(fn)
		}

	case "anthropic":
		m = anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Name)
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
			o.APIKey = cfg.APIKey
		})

	default:
		return nil, core.NewConfigurationFault(fmt.Sprintf("unknown model provider %q", cfg.Provider), nil)
	}

	if cfg.RatePerSecond > 0 {
		m = model.NewRateLimited(m, cfg.RatePerSecond, cfg.RateBurst)
	}

	return m, nil
}
