// Package metadata is a small key/value repository over the client
// database's metadata table. The session store keeps its two values here.
package metadata

import (
	"context"
)

// Repository reads and writes opaque values by key.
// Get returns (nil, nil) when the key is absent.
// Delete ignores keys that are absent.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}
