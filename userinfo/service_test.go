package userinfo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fragmentExtractor returns a fixed fragment and records the transcripts it
// was asked to analyze.
type fragmentExtractor struct {
	mu          sync.Mutex
	fragment    Fragment
	err         error
	transcripts []string
}

func (e *fragmentExtractor) Extract(_ context.Context, transcript string) (Fragment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.transcripts = append(e.transcripts, transcript)
	if e.err != nil {
		return Fragment{}, e.err
	}
	return e.fragment, nil
}

func (e *fragmentExtractor) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.transcripts)
}

func TestService_ProcessTurnUpdatesProfile(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	extractor := &fragmentExtractor{fragment: Fragment{Age: 16, Location: "Karlsruhe"}}
	service := NewService(extractor, store)

	profile, err := service.ProcessTurn(ctx, "user-1", historyFixture())
	require.NoError(t, err)
	assert.Equal(t, 16, profile.Age)

	stored, ok, err := service.Profile(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Karlsruhe", stored.Location)

	require.Equal(t, 1, extractor.calls())
	assert.Contains(t, extractor.transcripts[0], "User: Hallo")
}

func TestService_EmptyHistorySkipsExtraction(t *testing.T) {
	ctx := context.Background()
	extractor := &fragmentExtractor{}
	service := NewService(extractor, NewMemoryStore())

	profile, err := service.ProcessTurn(ctx, "user-1", nil)
	require.NoError(t, err)
	assert.Nil(t, profile)
	assert.Zero(t, extractor.calls())
}

func TestService_ExtractionFailureLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	extractor := &fragmentExtractor{err: errors.New("boom")}
	service := NewService(extractor, store)

	_, err := service.ProcessTurn(ctx, "user-1", historyFixture())
	require.ErrorContains(t, err, "boom")
	assert.Equal(t, 0, store.Len())
}
