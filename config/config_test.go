package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrei/parley/core"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "parley.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_Validates(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "german", cfg.Language)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "conversation_only", cfg.Agent.Kind)
	assert.Equal(t, "ollama", cfg.Model.Provider)
	assert.Equal(t, "memory", cfg.Store.Kind)
	assert.Equal(t, "parley:", cfg.Store.Redis.KeyPrefix)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.UserInfo.Enabled)
}

func TestLoad_WithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
language: english
agent:
  kind: phase
model:
  provider: mock
  timeout: 5s
  hosts:
    - http://gpu-1:11434
    - http://gpu-2:11434
store:
  kind: redis
  redis:
    addr: redis-0:6379
    ttl: 12h
userinfo:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "english", cfg.Language)
	assert.Equal(t, "phase", cfg.Agent.Kind)
	assert.Equal(t, "mock", cfg.Model.Provider)
	assert.Equal(t, 5*time.Second, cfg.Model.Timeout.Std())
	assert.Equal(t, []string{"http://gpu-1:11434", "http://gpu-2:11434"}, cfg.Model.Hosts)
	assert.Equal(t, "redis", cfg.Store.Kind)
	assert.Equal(t, "redis-0:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 12*time.Hour, cfg.Store.Redis.TTL.Std())
	assert.True(t, cfg.UserInfo.Enabled)

	// Untouched sections keep their defaults.
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 0.7, cfg.Model.Temperature)
	assert.Equal(t, "parley:", cfg.Store.Redis.KeyPrefix)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
model:
  provider: mock
  temperature: 0.2
`)

	t.Setenv("PARLEY_MODEL_PROVIDER", "openai")
	t.Setenv("PARLEY_MODEL_TEMPERATURE", "0.9")
	t.Setenv("PARLEY_MODEL_HOSTS", "http://a:11434, http://b:11434")
	t.Setenv("PARLEY_AGENT_TURN_BUDGET", "7")
	t.Setenv("PARLEY_SERVER_SHUTDOWN_TIMEOUT", "250ms")
	t.Setenv("PARLEY_METRICS_ENABLED", "false")
	t.Setenv("PARLEY_STORE_REDIS_ADDR", "redis-override:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, 0.9, cfg.Model.Temperature)
	assert.Equal(t, []string{"http://a:11434", "http://b:11434"}, cfg.Model.Hosts)
	assert.Equal(t, 7, cfg.Agent.TurnBudget)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.ShutdownTimeout.Std())
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "redis-override:6379", cfg.Store.Redis.Addr)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "model: [not a mapping")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_RejectsIntegerDuration(t *testing.T) {
	path := writeConfigFile(t, "server:\n  read_timeout: 30\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "durations are strings")
}

func TestLoad_RejectsBadEnvironmentValue(t *testing.T) {
	t.Setenv("PARLEY_AGENT_TURN_BUDGET", "many")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PARLEY_AGENT_TURN_BUDGET")
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Model.Provider = "bard"
	cfg.Store.Kind = "etcd"
	cfg.Agent.TurnBudget = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, core.FaultConfiguration, core.KindOf(err))
	assert.Contains(t, err.Error(), "model.provider")
	assert.Contains(t, err.Error(), "store.kind")
	assert.Contains(t, err.Error(), "agent.turn_budget")
}
