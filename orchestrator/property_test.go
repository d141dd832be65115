package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vitrei/parley/decision"
	"github.com/vitrei/parley/internal/testutil"
	"github.com/vitrei/parley/model"
	"github.com/vitrei/parley/prompt"
	"github.com/vitrei/parley/session"
	"pgregory.net/rapid"
)

// TestProperty_CounterEqualsSuccessfulTurns drives a random mix of
// successful and failed turns, streamed and direct, and checks that the
// counter and history only ever reflect the successful ones.
func TestProperty_CounterEqualsSuccessfulTurns(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := model.NewMockModel("mock", "test")
		store := session.NewInMemoryStore()
		o := New(m, func(opts *Options) {
			opts.Store = store
			opts.Agent = decision.NewConversationOnly()
			opts.Composer = prompt.NewComposer(testProvider(), "german")
		})

		ctx := context.Background()
		turns := rapid.IntRange(1, 12).Draw(rt, "turns")
		successes := 0

		for i := 0; i < turns; i++ {
			instruction := rapid.StringMatching(`[a-zäöüß ]{1,24}`).Draw(rt, "instruction")
			fail := rapid.Bool().Draw(rt, "fail")
			streamed := rapid.Bool().Draw(rt, "streamed")

			if fail {
				m.FailWith(errors.New("injected failure"))
			} else {
				m.FailWith(nil)
			}

			var err error
			if streamed {
				deltas, errs := o.HandleStream(ctx, "user-1", instruction)
				_, _, err = testutil.DrainStream(deltas, errs)
			} else {
				_, err = o.Handle(ctx, "user-1", instruction)
			}

			if fail {
				require.Error(rt, err)
			} else {
				require.NoError(rt, err)
				successes++
			}

			state, getErr := store.GetOrCreate(ctx, "user-1")
			require.NoError(rt, getErr)
			require.Equal(rt, successes, state.TurnCounter)
			require.Len(rt, state.History, successes)
		}
	})
}
