// Package kv defines the minimal key/value contract the conversion cache
// and the rate-table mirror persist through. Keys and values are strings;
// there are no transactions, last write wins.
package kv

import "context"

// Store is a durable string key/value store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
