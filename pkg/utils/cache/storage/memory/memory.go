package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/utils/cache"
)

type (
	Option[K comparable, V any] func(*Storage[K, V])

	entry[K comparable, V any] struct {
		key     K
		value   *V
		expires time.Time
	}

	// Storage keeps entries in process memory.
	// With a capacity the least recently used entry is evicted first.
	Storage[K comparable, V any] struct {
		mutex    sync.Mutex
		capacity int
		items    map[K]*list.Element
		order    *list.List // front is most recently used
		now      func() time.Time
	}
)

var _ cache.Storage[string, string] = (*Storage[string, string])(nil)

// WithCapacity limits the number of entries. 0 means unbounded
func WithCapacity[K comparable, V any](arg int) Option[K, V] {
	return func(s *Storage[K, V]) {
		s.capacity = arg
	}
}

func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(s *Storage[K, V]) {
		s.now = now
	}
}

func New[K comparable, V any](opts ...Option[K, V]) *Storage[K, V] {
	ret := &Storage[K, V]{
		items: make(map[K]*list.Element),
		order: list.New(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (s *Storage[K, V]) Get(_ context.Context, key K) (value *V, found bool, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	el, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	e := el.Value.(*entry[K, V])
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		s.remove(el)
		return nil, false, nil
	}
	s.order.MoveToFront(el)
	return e.value, true, nil
}

//nolint:whitespace // editor/linter issue
func (s *Storage[K, V]) Set(
	_ context.Context,
	key K,
	value *V,
	ttl time.Duration,
) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	var expires time.Time
	if ttl > 0 {
		expires = s.now().Add(ttl)
	}
	if el, ok := s.items[key]; ok {
		e := el.Value.(*entry[K, V])
		e.value, e.expires = value, expires
		s.order.MoveToFront(el)
		return nil
	}
	s.items[key] = s.order.PushFront(&entry[K, V]{key: key, value: value, expires: expires})
	for s.capacity > 0 && s.order.Len() > s.capacity {
		s.remove(s.order.Back())
	}
	return nil
}

func (s *Storage[K, V]) Delete(_ context.Context, key K) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if el, ok := s.items[key]; ok {
		s.remove(el)
	}
	return nil
}

func (s *Storage[K, V]) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.order.Len()
}

func (s *Storage[K, V]) remove(el *list.Element) {
	s.order.Remove(el)
	delete(s.items, el.Value.(*entry[K, V]).key)
}
