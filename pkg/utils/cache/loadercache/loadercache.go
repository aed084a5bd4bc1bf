package loadercache

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/mpapenbr/f1-telemetry-lab/log"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/utils/cache"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/utils/cache/storage/memory"
)

// based on github.com/kittpat1413/go-common/framework/cache/localcache/localcache.go

type (
	Option[K comparable, V any] func(*config[K, V])
	LoaderFunc[K comparable, V any] func(ctx context.Context, key K) (*V, error)
	config[K comparable, V any]     struct {
		name       string
		expiration time.Duration
		loader     LoaderFunc[K, V]
		storage    cache.Storage[K, V]
		l          *log.Logger
	}
	loaderCache[K comparable, V any] struct {
		config *config[K, V]
		group  singleflight.Group
		hits   metric.Int64Counter
		misses metric.Int64Counter
		attrs  metric.MeasurementOption
	}
)

var meter = otel.Meter("github.com/mpapenbr/f1-telemetry-lab/pkg/utils/cache")

// WithExpiration sets the time to live of loaded entries. 0 keeps them for the
// lifetime of the storage.
func WithExpiration[K comparable, V any](expiration time.Duration) Option[K, V] {
	return func(c *config[K, V]) {
		c.expiration = expiration
	}
}

func WithLoader[K comparable, V any](lf LoaderFunc[K, V]) Option[K, V] {
	return func(c *config[K, V]) {
		c.loader = lf
	}
}

func WithStorage[K comparable, V any](arg cache.Storage[K, V]) Option[K, V] {
	return func(c *config[K, V]) {
		c.storage = arg
	}
}

func WithLogger[K comparable, V any](arg *log.Logger) Option[K, V] {
	return func(c *config[K, V]) {
		c.l = arg
	}
}

// WithName is used in log entries and as metric attribute
func WithName[K comparable, V any](arg string) Option[K, V] {
	return func(c *config[K, V]) {
		c.name = arg
	}
}

// New creates a get-or-fetch cache. Loader errors are returned to the caller and
// never cached. Concurrent misses for the same key share one loader call, which
// keeps running if the caller that started it gives up.
func New[K comparable, V any](opts ...Option[K, V]) cache.Cache[K, V] {
	c := &config[K, V]{
		name:       "default",
		expiration: 5 * time.Minute,
		l:          log.Default().Named("cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.storage == nil {
		c.storage = memory.New[K, V]()
	}
	ret := &loaderCache[K, V]{
		config: c,
		attrs:  metric.WithAttributes(attribute.String("cache", c.name)),
	}
	var err error
	if ret.hits, err = meter.Int64Counter("ftl.cache.hits",
		metric.WithDescription("cache lookups served from storage")); err != nil {
		c.l.Warn("could not create metric", log.ErrorField(err))
	}
	if ret.misses, err = meter.Int64Counter("ftl.cache.misses",
		metric.WithDescription("cache lookups requiring a fetch")); err != nil {
		c.l.Warn("could not create metric", log.ErrorField(err))
	}
	return ret
}

func (c *loaderCache[K, V]) Get(ctx context.Context, key K) (*V, error) {
	v, found, err := c.config.storage.Get(ctx, key)
	if err != nil {
		c.config.l.Warn("storage lookup failed",
			log.String("cache", c.config.name), log.ErrorField(err))
	}
	if found {
		c.count(ctx, c.hits)
		return v, nil
	}
	c.count(ctx, c.misses)
	if c.config.loader == nil {
		return nil, cache.ErrCacheMiss
	}
	// the load is shared by all waiters, a canceled waiter must not abort it
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(fmt.Sprintf("%#v", key), func() (any, error) {
		return c.load(loadCtx, key)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.config.l.Debug("shared load", log.String("cache", c.config.name),
				log.Any("key", key))
		}
		return res.Val.(*V), nil
	}
}

func (c *loaderCache[K, V]) load(ctx context.Context, key K) (*V, error) {
	// another flight may have completed since the first lookup
	if v, found, err := c.config.storage.Get(ctx, key); err == nil && found {
		return v, nil
	}
	v, err := c.config.loader(ctx, key)
	c.config.l.Debug("loaderCache.load",
		log.String("cache", c.config.name), log.Any("key", key))
	if err != nil {
		c.config.l.Debug("error loading entry", log.ErrorField(err))
		return nil, err
	}
	if err := c.config.storage.Set(ctx, key, v, c.config.expiration); err != nil {
		c.config.l.Warn("could not store entry",
			log.String("cache", c.config.name), log.ErrorField(err))
	}
	return v, nil
}

func (c *loaderCache[K, V]) Invalidate(ctx context.Context, key K) {
	c.config.l.Debug("Invalidate", log.String("cache", c.config.name), log.Any("key", key))
	if err := c.config.storage.Delete(ctx, key); err != nil {
		c.config.l.Warn("could not invalidate entry",
			log.String("cache", c.config.name), log.ErrorField(err))
	}
}

func (c *loaderCache[K, V]) count(ctx context.Context, counter metric.Int64Counter) {
	if counter != nil {
		counter.Add(ctx, 1, c.attrs)
	}
}
