// Package kv defines the persistent key-value contract behind the snapshot
// store and its in-memory, file and Redis backends.
package kv

import "context"

// Store is a flat string-to-string store. Each call is atomic on its own;
// there are no multi-key transactions.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Watcher is implemented by backends that can observe writes made by other
// processes sharing the same storage. Watch blocks until ctx is done.
type Watcher interface {
	Watch(ctx context.Context, onChange func(key string)) error
}
