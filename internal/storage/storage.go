package storage

import (
	"context"
)

// KV defines the key-value contract the catalog snapshot is persisted through.
//
// Set must replace the previous value atomically: a concurrent Get observes
// either the old value or the new one, never a partial write.
type KV interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set replaces the value stored under key
	Set(ctx context.Context, key, value string) error

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
