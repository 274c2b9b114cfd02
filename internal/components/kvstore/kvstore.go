// Package kvstore is the persisted, process-wide string-keyed store that backs the price cache.
package kvstore

import (
	"context"
)

// Store is a persisted string-keyed store of serialized values.
//
// note: fault injection point
type Store interface {
	// Get returns the value stored under key, ok is false when the key does not exist.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set creates or overwrites the value under key.
	Set(ctx context.Context, key, value string) error
	// Delete removes key, deleting a key that does not exist is not an error.
	Delete(ctx context.Context, key string) error
	// ListKeys returns every key in the store.
	ListKeys(ctx context.Context) ([]string, error)
}
