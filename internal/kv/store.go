package kv

import (
	"context"
	"errors"
)

// ErrNotFound reports a missing key.
var ErrNotFound = errors.New("kv: key not found")

// Store is the ephemeral state shared across process restarts and instances.
// Values never expire on their own; callers clear them explicitly when a
// match is torn down. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	MultiGet(ctx context.Context, keys ...string) (map[string]string, error)

	// GetJSON/SetJSON read and write one composite record atomically.
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any) error
}
