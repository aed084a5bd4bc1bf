package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mpapenbr/f1-telemetry-lab/log"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/utils"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/utils/cache"
)

type (
	Option[K comparable, V any] func(*Storage[K, V])

	// Storage keeps JSON encoded entries in a JetStream key-value bucket,
	// so several processes can share the cached data.
	// Entries expire with the TTL of the bucket, the ttl passed to Set is ignored.
	Storage[K comparable, V any] struct {
		nc      *nats.Conn
		bucket  string
		ttl     time.Duration
		keyFunc func(K) string
		kv      jetstream.KeyValue
		log     *log.Logger
	}
)

var _ cache.Storage[string, string] = (*Storage[string, string])(nil)

func WithBucket[K comparable, V any](arg string) Option[K, V] {
	return func(s *Storage[K, V]) {
		s.bucket = arg
	}
}

// WithTTL sets the max age of the bucket entries. 0 keeps them until deleted
func WithTTL[K comparable, V any](arg time.Duration) Option[K, V] {
	return func(s *Storage[K, V]) {
		s.ttl = arg
	}
}

// WithKeyFunc sets the function rendering a cache key into a string.
// The string is hashed before it is used as bucket key.
func WithKeyFunc[K comparable, V any](arg func(K) string) Option[K, V] {
	return func(s *Storage[K, V]) {
		s.keyFunc = arg
	}
}

func WithLogger[K comparable, V any](arg *log.Logger) Option[K, V] {
	return func(s *Storage[K, V]) {
		s.log = arg
	}
}

func New[K comparable, V any](nc *nats.Conn, opts ...Option[K, V]) (*Storage[K, V], error) {
	ret := &Storage[K, V]{
		nc:      nc,
		bucket:  "ftl_cache",
		keyFunc: func(k K) string { return fmt.Sprintf("%#v", k) },
		log:     log.Default().Named("cache.nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if err := ret.init(); err != nil {
		return nil, err
	}
	ret.log.Debug("Initialized NATS cache storage", log.String("bucket", ret.bucket))
	return ret, nil
}

func (s *Storage[K, V]) init() error {
	var js jetstream.JetStream
	var err error
	if js, err = jetstream.New(s.nc); err != nil {
		return err
	}
	s.kv, err = js.CreateOrUpdateKeyValue(context.Background(), jetstream.KeyValueConfig{
		Bucket:  s.bucket,
		TTL:     s.ttl,
		Storage: jetstream.MemoryStorage,
		History: 1,
	})
	return err
}

func (s *Storage[K, V]) Get(ctx context.Context, key K) (value *V, found bool, err error) {
	kve, err := s.kv.Get(ctx, s.composeKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var ret V
	if err := json.Unmarshal(kve.Value(), &ret); err != nil {
		// stale data of another version, treat as miss
		s.log.Warn("discarding undecodable entry", log.ErrorField(err))
		return nil, false, nil
	}
	return &ret, true, nil
}

//nolint:whitespace // editor/linter issue
func (s *Storage[K, V]) Set(
	ctx context.Context,
	key K,
	value *V,
	_ time.Duration,
) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = s.kv.Put(ctx, s.composeKey(key), data)
	return err
}

func (s *Storage[K, V]) Delete(ctx context.Context, key K) error {
	err := s.kv.Delete(ctx, s.composeKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (s *Storage[K, V]) composeKey(key K) string {
	return "entry." + utils.HashKey(s.keyFunc(key))
}
