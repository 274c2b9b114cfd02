package testutil

import (
	"context"
	"testing"

	"barter-enhancer/internal/components/kvstore"
)

// SetupStore opens a fresh in-memory kv store that is closed when the test ends.
func SetupStore(t testing.TB) kvstore.SQLStore {
	db, err := kvstore.OpenSqlite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := kvstore.NewSQLStore(context.Background(), db)
	if err != nil {
		t.Fatal(err)
	}
	return store
}
