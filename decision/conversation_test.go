package decision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitrei/parley/core"
)

var _ core.DecisionAgent = (*ConversationOnly)(nil)

func TestConversationOnly_NextAction(t *testing.T) {
	agent := NewConversationOnly()
	assert.Equal(t, "conversation_only", agent.Name())

	states := []*core.AgentState{
		core.NewAgentState("user-1"),
		{UserID: "user-2", TurnCounter: 7, CurrentPhase: "S3"},
		{UserID: "user-3", History: []core.Exchange{{Instruction: "Hallo"}}},
	}

	for _, state := range states {
		decision, err := agent.NextAction(context.Background(), state)
		require.NoError(t, err)
		assert.Equal(t, core.GenerateAnswer, decision.Type)
		assert.Empty(t, decision.Action)
	}
}
