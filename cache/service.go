package cache

import (
	"context"

	"github.com/goliatone/go-typeprovider-cache/internal/cacheinfra"
)

// CacheService is the coalescing store an EntityCache creates through. It
// is exported so callers can plug in an alternate backend; the default is a
// sturdyc client sized by Config.
type CacheService[V any] interface {
	// GetOrFetch returns the stored value for key or runs fetch, sharing one
	// in-flight fetch among concurrent callers. fetch reports "no such
	// entity" with ErrNotFound; the service may answer it with ErrNotFound
	// or a wrapped form of it.
	GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (V, error)) (V, error)

	// GetOrFetchBatch resolves keys, calling fetch once with the keys that
	// are neither stored nor in flight. Keys missing from the result have
	// no entity.
	GetOrFetchBatch(ctx context.Context, keys []string, fetch func(ctx context.Context, keys []string) (map[string]V, error)) (map[string]V, error)

	// Delete forgets whatever the store holds for key, including a
	// remembered "no such entity" answer.
	Delete(key string)
}

var _ CacheService[struct{}] = (*cacheinfra.Store[struct{}])(nil)
