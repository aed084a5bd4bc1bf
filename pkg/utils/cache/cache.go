package cache

import (
	"context"
	"errors"
	"time"
)

// based on github.com/kittpat1413/go-common/framework/cache/cache.go

var ErrCacheMiss = errors.New("cache miss")

// Cache returns the value for key, fetching it on a miss.
type Cache[K comparable, V any] interface {
	Get(ctx context.Context, key K) (*V, error)
	Invalidate(ctx context.Context, key K)
}

// Storage holds the cached entries. Implementations must be safe for concurrent use.
// A ttl of 0 keeps the entry until it is evicted or deleted.
type Storage[K comparable, V any] interface {
	Get(ctx context.Context, key K) (value *V, found bool, err error)
	Set(ctx context.Context, key K, value *V, ttl time.Duration) error
	Delete(ctx context.Context, key K) error
}
