package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rndmzd/hallmonitor/internal/database"
)

type failingStore struct{}

func (failingStore) AddAllowedUser(context.Context, string, string) error { return errors.New("add failed") }
func (failingStore) RemoveAllowedUser(context.Context, string) error      { return errors.New("remove failed") }
func (failingStore) ListAllowedUsers(context.Context) ([]string, error)   { return nil, errors.New("list failed") }

func TestAllowListAddIsIdempotent(t *testing.T) {
	a := NewAllowList(nil, nil)
	ctx := context.Background()

	added, err := a.Add(ctx, "42", "1")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = a.Add(ctx, "42", "1")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"42"}, a.List())
}

func TestAllowListRemoveAbsent(t *testing.T) {
	a := NewAllowList([]string{"1", "2"}, nil)

	removed, err := a.Remove(context.Background(), "99")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, []string{"1", "2"}, a.List())

	removed, err = a.Remove(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, a.Contains("1"))
	assert.Equal(t, 1, a.Len())
}

func TestAllowListKeepsInsertionOrderAndDedupesSeed(t *testing.T) {
	a := NewAllowList([]string{"3", "1", "3", "2"}, nil)
	assert.Equal(t, []string{"3", "1", "2"}, a.List())
}

func TestAllowListPersistsThroughStore(t *testing.T) {
	db, err := database.Open(database.MemoryPath)
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	a := NewAllowList([]string{"1"}, db)
	_, err = a.Add(ctx, "42", "1")
	require.NoError(t, err)

	reloaded := NewAllowList([]string{"1"}, db)
	n, err := reloaded.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"1", "42"}, reloaded.List())

	_, err = reloaded.Remove(ctx, "42")
	require.NoError(t, err)
	ids, err := db.ListAllowedUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestAllowListStoreFailureLeavesMemoryUnchanged(t *testing.T) {
	a := NewAllowList([]string{"1"}, failingStore{})
	ctx := context.Background()

	added, err := a.Add(ctx, "42", "1")
	assert.Error(t, err)
	assert.False(t, added)
	assert.False(t, a.Contains("42"))

	removed, err := a.Remove(ctx, "1")
	assert.Error(t, err)
	assert.False(t, removed)
	assert.True(t, a.Contains("1"))

	_, err = a.Load(ctx)
	assert.Error(t, err)
}

func TestAllowListLoadWithoutStore(t *testing.T) {
	n, err := NewAllowList(nil, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
