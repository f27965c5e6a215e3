package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vardrill/domain/core"
	"vardrill/domain/drill"
	"vardrill/internal/filterstack"
	"vardrill/internal/migration"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), "sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleStack(t *testing.T) drill.FilterStack {
	t.Helper()
	a, err := filterstack.CreateFilterAction(drill.FilterParams{
		Source: drill.SourceBoxplot, Factor: "Machine", Values: drill.Values("A", "B"),
	}, nil)
	require.NoError(t, err)
	b, err := filterstack.CreateFilterAction(drill.FilterParams{
		Source: drill.SourcePareto, Factor: "Lot", Values: []drill.Value{drill.NumberValue(7)},
	}, nil)
	require.NoError(t, err)
	return filterstack.Push(filterstack.Push(filterstack.Clear(), a), b)
}

func TestStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	id := core.NewSessionID()

	snap := &drill.SessionSnapshot{SessionID: id, DatasetVersion: "abc", Outcome: "Weight", Stack: sampleStack(t)}
	require.NoError(t, store.Save(ctx, snap))
	assert.Equal(t, 1, snap.Version)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Weight", got.Outcome)
	assert.Equal(t, "abc", got.DatasetVersion)
	require.Len(t, got.Stack, 2)
	assert.Equal(t, snap.Stack[0].ID, got.Stack[0].ID)
	assert.Equal(t, drill.KindNumber, got.Stack[1].Values[0].Kind())
	assert.Equal(t, filterstack.ToFilters(snap.Stack), filterstack.ToFilters(got.Stack))
}

func TestStore_SaveBumpsVersion(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	snap := &drill.SessionSnapshot{SessionID: core.NewSessionID(), Stack: sampleStack(t)}

	require.NoError(t, store.Save(ctx, snap))
	snap.Stack = filterstack.Pop(snap.Stack)
	require.NoError(t, store.Save(ctx, snap))
	assert.Equal(t, 2, snap.Version)

	got, err := store.Get(ctx, snap.SessionID)
	require.NoError(t, err)
	assert.Len(t, got.Stack, 1)
}

func TestStore_GetMissing(t *testing.T) {
	_, err := openTestStore(t).Get(context.Background(), core.SessionID("missing"))
	require.Error(t, err)
	assert.True(t, core.IsNotFoundError(err))
}

func TestStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	ids := []core.SessionID{core.NewSessionID(), core.NewSessionID()}
	for _, id := range ids {
		require.NoError(t, store.Save(ctx, &drill.SessionSnapshot{SessionID: id}))
	}

	list, err := store.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.NotNil(t, list[0].Stack)

	require.NoError(t, store.Delete(ctx, ids[0]))
	require.NoError(t, store.Delete(ctx, ids[0]))

	list, err = store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ids[1], list[0].SessionID)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, migration.NewRunner().Run(context.Background(), store.db))
	require.NoError(t, store.Ping(context.Background()))
}
