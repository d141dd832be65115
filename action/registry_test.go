package action

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitrei/parley/core"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(Parrot{}))

	err := r.Register(Parrot{})
	require.Error(t, err)
	assert.Equal(t, core.FaultConfiguration, core.KindOf(err))

	err = r.Register(NewFunc("", "nameless", nil))
	require.Error(t, err)

	r.Replace(NewFunc("parrot", "override", func(_ context.Context, _ Invocation) (core.LLMAnswer, error) {
		return core.NewLLMAnswer("quiet"), nil
	}))

	a, err := r.Resolve("parrot")
	require.NoError(t, err)
	assert.Equal(t, "override", a.Description())
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Resolve("teleport")
	require.Error(t, err)
	assert.Equal(t, core.FaultUnknownAction, core.KindOf(err))
	assert.True(t, core.IsRecoverable(err))
}

func TestRegistry_Invoke(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Parrot{}))

	state := core.NewAgentState("user-1")
	answer, err := r.Invoke(context.Background(), "parrot", Invocation{State: state, Instruction: "hallo"})
	require.NoError(t, err)
	assert.Equal(t, "Deine Instruction war: hallo", answer.Content)

	_, err = r.Invoke(context.Background(), "teleport", Invocation{State: state})
	assert.Equal(t, core.FaultUnknownAction, core.KindOf(err))
}

func TestRegistry_InvokePropagatesFailures(t *testing.T) {
	r := NewRegistry()

	boom := errors.New("connection refused")
	require.NoError(t, r.Register(NewFunc("flaky", "fails", func(_ context.Context, _ Invocation) (core.LLMAnswer, error) {
		return core.LLMAnswer{}, boom
	})))

	fault := core.NewConfigurationFault("misconfigured action", nil)
	require.NoError(t, r.Register(NewFunc("fatal", "fails fatally", func(_ context.Context, _ Invocation) (core.LLMAnswer, error) {
		return core.LLMAnswer{}, fault
	})))

	_, err := r.Invoke(context.Background(), "flaky", Invocation{})
	require.Error(t, err)
	assert.Same(t, boom, err, "action failures pass through unmodified")
	assert.Equal(t, core.FaultUpstream, core.KindOf(err), "unclassified errors count as upstream")

	_, err = r.Invoke(context.Background(), "fatal", Invocation{})
	require.Error(t, err)
	assert.Equal(t, core.FaultConfiguration, core.KindOf(err))
}

func TestPathRecommendation(t *testing.T) {
	answer, err := PathRecommendation{}.Invoke(context.Background(), Invocation{})
	require.NoError(t, err)

	assert.Equal(t, "Du musst Informatik an der HKA studieren!", answer.Content)
	assert.Equal(t, "educationalPath", answer.Payload["type"])

	data, ok := answer.Payload["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Informatik", data["title"])
}

func TestBuiltins(t *testing.T) {
	r := NewRegistry()
	for _, a := range Builtins() {
		require.NoError(t, r.Register(a))
	}

	assert.Equal(t, []string{"parrot", "path_prediction"}, r.Names())
}
