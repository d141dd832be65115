// Package config carries the runtime configuration of the conversation
// backend. Values resolve in three layers: compiled defaults, then a YAML
// file, then PARLEY_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vitrei/parley/core"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
// Plain yaml.v3 would only accept nanosecond integers.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("durations are strings like \"30s\": %w", err)
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the complete runtime configuration.
type Config struct {
	// Language selects the prompt profile for every conversation.
	Language string `yaml:"language" env:"LANGUAGE"`

	Server   ServerConfig   `yaml:"server" env:"SERVER"`
	Agent    AgentConfig    `yaml:"agent" env:"AGENT"`
	Model    ModelConfig    `yaml:"model" env:"MODEL"`
	Prompts  PromptsConfig  `yaml:"prompts" env:"PROMPTS"`
	Phases   PhasesConfig   `yaml:"phases" env:"PHASES"`
	Store    StoreConfig    `yaml:"store" env:"STORE"`
	Log      LogConfig      `yaml:"log" env:"LOG"`
	Metrics  MetricsConfig  `yaml:"metrics" env:"METRICS"`
	UserInfo UserInfoConfig `yaml:"userinfo" env:"USERINFO"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr" env:"ADDR"`
	// ReadTimeout bounds reading a request including the body.
	ReadTimeout Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// WriteTimeout bounds writing a response. Zero leaves streams unbounded;
	// the model timeout limits the actual work.
	WriteTimeout Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// ShutdownTimeout bounds the graceful drain on termination.
	ShutdownTimeout Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// H2C additionally serves cleartext HTTP/2.
	H2C bool `yaml:"h2c" env:"H2C"`
}

// AgentConfig selects and parametrizes the decision agent.
type AgentConfig struct {
	// Kind is one of conversation_only, scripted, phase.
	Kind string `yaml:"kind" env:"KIND"`
	// Selector picks the phase selector for the phase agent: rules or llm.
	Selector string `yaml:"selector" env:"SELECTOR"`
	// TurnBudget forces the terminal phase after this many turns (rule
	// selector).
	TurnBudget int `yaml:"turn_budget" env:"TURN_BUDGET"`
	// ProgressEvery advances to the next phase after this many turns in one
	// phase (rule selector).
	ProgressEvery int `yaml:"progress_every" env:"PROGRESS_EVERY"`
}

// ModelConfig selects and parametrizes the model provider.
type ModelConfig struct {
	// Provider is one of openai, anthropic, ollama, mock.
	Provider string `yaml:"provider" env:"PROVIDER"`
	// Name is the provider-side model id, e.g. "gemma3:27b" or "gpt-4o".
	// Empty keeps the provider default.
	Name string `yaml:"name" env:"NAME"`
	// Temperature passed to the provider.
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE"`
	// MaxTokens caps the completion length for hosted providers.
	MaxTokens int64 `yaml:"max_tokens" env:"MAX_TOKENS"`
	// Timeout bounds one generation call.
	Timeout Duration `yaml:"timeout" env:"TIMEOUT"`
	// Hosts lists Ollama base URLs; one is picked at random per call.
	Hosts []string `yaml:"hosts" env:"HOSTS"`
	// APIKey authenticates hosted providers. Empty falls back to the
	// provider's own environment variable.
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// RatePerSecond throttles generation calls. Zero disables the limiter.
	RatePerSecond float64 `yaml:"rate_per_second" env:"RATE_PER_SECOND"`
	// RateBurst is the throttle burst size.
	RateBurst int `yaml:"rate_burst" env:"RATE_BURST"`
}

// PromptsConfig locates the prompt material.
type PromptsConfig struct {
	// Path to the prompt profiles JSON. Empty uses the built-in material.
	Path string `yaml:"path" env:"PATH"`
	// Profile selects the agent profile inside the prompt file.
	Profile string `yaml:"profile" env:"PROFILE"`
}

// PhasesConfig locates the phase graph.
type PhasesConfig struct {
	// Path to the phase graph JSON. Empty uses the built-in graph.
	Path string `yaml:"path" env:"PATH"`
}

// StoreConfig selects the session store.
type StoreConfig struct {
	// Kind is one of memory, redis.
	Kind  string      `yaml:"kind" env:"KIND"`
	Redis RedisConfig `yaml:"redis" env:"REDIS"`
}

// RedisConfig configures the Redis session store.
type RedisConfig struct {
	Addr      string   `yaml:"addr" env:"ADDR"`
	Password  string   `yaml:"password" env:"PASSWORD"`
	DB        int      `yaml:"db" env:"DB"`
	KeyPrefix string   `yaml:"key_prefix" env:"KEY_PREFIX"`
	TTL       Duration `yaml:"ttl" env:"TTL"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is json or console.
	Format string `yaml:"format" env:"FORMAT"`
}

// MetricsConfig configures the Prometheus surface.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// UserInfoConfig configures background profile extraction.
type UserInfoConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// DatabasePath is the JSON profile database. Empty keeps profiles in
	// memory only.
	DatabasePath string `yaml:"database_path" env:"DATABASE_PATH"`
	// Concurrency is the number of extraction goroutines.
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY"`
}

// Default returns the compiled-in configuration: an Ollama-backed German
// conversation with in-memory sessions, plain generation on every turn,
// metrics on and profile extraction off.
func Default() *Config {
	return &Config{
		Language: "german",
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration(30 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Agent: AgentConfig{
			Kind:          "conversation_only",
			Selector:      "rules",
			TurnBudget:    20,
			ProgressEvery: 3,
		},
		Model: ModelConfig{
			Provider:    "ollama",
			Name:        "gemma3:27b",
			Temperature: 0.7,
			MaxTokens:   4096,
			Timeout:     Duration(60 * time.Second),
			RateBurst:   1,
		},
		Prompts: PromptsConfig{
			Profile: "simple",
		},
		Store: StoreConfig{
			Kind: "memory",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "parley:",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "parley",
		},
		UserInfo: UserInfoConfig{
			DatabasePath: "user_profiles.json",
			Concurrency:  1,
		},
	}
}

// Validate checks the closed-set fields and basic bounds, collecting every
// problem into one configuration fault.
func (c *Config) Validate() error {
	var problems []string

	checkSet := func(field, value string, allowed ...string) {
		for _, a := range allowed {
			if value == a {
				return
			}
		}
		problems = append(problems, fmt.Sprintf("%s must be one of %s, got %q", field, strings.Join(allowed, "|"), value))
	}

	if c.Language == "" {
		problems = append(problems, "language must not be empty")
	}
	if c.Server.Addr == "" {
		problems = append(problems, "server.addr must not be empty")
	}

	checkSet("agent.kind", c.Agent.Kind, "conversation_only", "scripted", "phase")
	checkSet("agent.selector", c.Agent.Selector, "rules", "llm")
	checkSet("model.provider", c.Model.Provider, "openai", "anthropic", "ollama", "mock")
	checkSet("store.kind", c.Store.Kind, "memory", "redis")
	checkSet("log.level", c.Log.Level, "debug", "info", "warn", "error")
	checkSet("log.format", c.Log.Format, "json", "console")

	if c.Prompts.Path != "" && c.Prompts.Profile == "" {
		problems = append(problems, "prompts.profile must be set when prompts.path is")
	}
	if c.Agent.TurnBudget < 1 {
		problems = append(problems, "agent.turn_budget must be positive")
	}
	if c.Agent.ProgressEvery < 1 {
		problems = append(problems, "agent.progress_every must be positive")
	}
	if c.Model.RatePerSecond < 0 {
		problems = append(problems, "model.rate_per_second must not be negative")
	}
	if c.UserInfo.Enabled && c.UserInfo.Concurrency < 1 {
		problems = append(problems, "userinfo.concurrency must be positive")
	}

	if len(problems) > 0 {
		return core.NewConfigurationFault("invalid configuration: "+strings.Join(problems, "; "), nil)
	}
	return nil
}
