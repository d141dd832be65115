package userinfo

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
)

func TestMemoryStore_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)

	profile, err := store.Upsert(ctx, "user-1", Fragment{Age: 16})
	require.NoError(t, err)
	assert.Equal(t, "user-1", profile.UserID)
	assert.Equal(t, 16, profile.Age)

	profile, err = store.Upsert(ctx, "user-1", Fragment{Location: "Karlsruhe"})
	require.NoError(t, err)
	assert.Equal(t, 16, profile.Age)
	assert.Equal(t, "Karlsruhe", profile.Location)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_HandsOutCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Upsert(ctx, "user-1", Fragment{NewsSources: FlexStrings{"Tagesschau"}})
	require.NoError(t, err)

	profile, ok, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok)

	profile.NewsSources[0] = "verändert"
	profile.Age = 99

	reloaded, ok, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"Tagesschau"}, reloaded.NewsSources)
	assert.Zero(t, reloaded.Age)
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "user_profiles.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = store.Upsert(ctx, "user-1", Fragment{Age: 16, Location: "Karlsruhe"})
	require.NoError(t, err)

	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	profile, ok, err := reopened.Get(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 16, profile.Age)
	assert.Equal(t, "Karlsruhe", profile.Location)
}

func TestFileStore_DocumentIsKeyedByUser(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "user_profiles.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	_, err = store.Upsert(ctx, "user-1", Fragment{Age: 16})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]UserProfile
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "user-1", doc["user-1"].UserID)
	assert.Equal(t, 16, doc["user-1"].Age)
}

func TestFileStore_MissingFileStartsEmpty(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	_, ok, err := store.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_RejectsCorruptDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_profiles.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path)
	require.Error(t, err)
}
