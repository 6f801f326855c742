// Package store persists generated signals in a namespaced key-value store
// and maintains the newest-first signal index alongside the records.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Entry is the result of a lookup: Exists reports whether the key was
// present and Data holds its raw value.
type Entry struct {
	Exists bool
	Data   []byte
}

// KV is a namespaced key-value store. Concurrent writers to one key race
// and the last write wins.
type KV interface {
	Get(ctx context.Context, namespace, key string) (Entry, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
	Close() error
}

// TypedEntry is a decoded Entry
type TypedEntry[T any] struct {
	Exists bool
	Data   T
}

// GetJSON loads key and decodes it into T
func GetJSON[T any](ctx context.Context, kv KV, namespace, key string) (TypedEntry[T], error) {
	var out TypedEntry[T]
	entry, err := kv.Get(ctx, namespace, key)
	if err != nil {
		return out, err
	}
	if !entry.Exists {
		return out, nil
	}
	if err := json.Unmarshal(entry.Data, &out.Data); err != nil {
		return out, fmt.Errorf("failed to decode %s/%s: %w", namespace, key, err)
	}
	out.Exists = true
	return out, nil
}

// SetJSON encodes value and stores it under key
func SetJSON(ctx context.Context, kv KV, namespace, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", namespace, key, err)
	}
	return kv.Set(ctx, namespace, key, data)
}
