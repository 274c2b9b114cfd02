package kvstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupStore(t testing.TB, path string) SQLStore {
	db, err := OpenSqlite(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLStore(context.Background(), db)
	require.NoError(t, err)
	return store
}

func TestSQLStore(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t, ":memory:")

	_, ok, err := store.Get(ctx, "steam:price:1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "steam:price:1", `{"ts":1,"value":null}`))
	require.NoError(t, store.Set(ctx, "itad:plain:2", `{"ts":1,"value":"portal"}`))
	require.NoError(t, store.Set(ctx, "steam:price:1", `{"ts":2,"value":null}`))

	value, ok, err := store.Get(ctx, "steam:price:1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"ts":2,"value":null}`, value)

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"itad:plain:2", "steam:price:1"}, keys)

	require.NoError(t, store.Delete(ctx, "steam:price:1"))
	require.NoError(t, store.Delete(ctx, "does-not-exist"))

	keys, err = store.ListKeys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"itad:plain:2"}, keys)
}

func TestSQLStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	first := setupStore(t, path)
	require.NoError(t, first.Set(ctx, "a", "1"))
	require.NoError(t, first.db.Close())

	second := setupStore(t, path)
	value, ok, err := second.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", value)
}

func TestConfigOpenDB(t *testing.T) {
	_, err := Config{}.OpenDB()
	require.Error(t, err)

	db, err := Config{File: filepath.Join(t.TempDir(), "kv.db")}.OpenDB()
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	db.Close()
}
