package loadercache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/utils/cache"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/utils/cache/storage/memory"
)

type countingLoader struct {
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (l *countingLoader) load(_ context.Context, key string) (*string, error) {
	l.calls.Add(1)
	time.Sleep(l.delay)
	if l.err != nil {
		return nil, l.err
	}
	v := "value-" + key
	return &v, nil
}

func TestGetCachesValues(t *testing.T) {
	l := &countingLoader{}
	c := New(WithLoader(l.load))
	ctx := context.Background()

	for range 3 {
		v, err := c.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "value-a", *v)
	}
	assert.Equal(t, int32(1), l.calls.Load())

	c.Invalidate(ctx, "a")
	_, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int32(2), l.calls.Load())
}

func TestErrorsAreNotCached(t *testing.T) {
	errBoom := errors.New("boom")
	l := &countingLoader{err: errBoom}
	c := New(WithLoader(l.load))
	ctx := context.Background()

	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, errBoom)
	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, int32(2), l.calls.Load())

	l.err = nil
	v, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "value-a", *v)
}

func TestExpiration(t *testing.T) {
	now := time.Date(2023, 9, 3, 13, 0, 0, 0, time.UTC)
	s := memory.New(memory.WithClock[string, string](func() time.Time { return now }))
	l := &countingLoader{}
	c := New(WithLoader(l.load), WithStorage[string, string](s),
		WithExpiration[string, string](time.Minute))
	ctx := context.Background()

	_, _ = c.Get(ctx, "a")
	now = now.Add(30 * time.Second)
	_, _ = c.Get(ctx, "a")
	assert.Equal(t, int32(1), l.calls.Load())
	now = now.Add(time.Minute)
	_, _ = c.Get(ctx, "a")
	assert.Equal(t, int32(2), l.calls.Load())
}

func TestConcurrentMissesShareOneLoad(t *testing.T) {
	l := &countingLoader{delay: 50 * time.Millisecond}
	c := New(WithLoader(l.load))
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Get(ctx, "a")
			assert.NoError(t, err)
			assert.Equal(t, "value-a", *v)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), l.calls.Load())
}

func TestWithoutLoader(t *testing.T) {
	c := New[string, string]()
	_, err := c.Get(context.Background(), "a")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

type blockingLoader struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (l *blockingLoader) load(ctx context.Context, key string) (*string, error) {
	if l.calls.Add(1) == 1 {
		close(l.started)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.release:
	}
	v := "value-" + key
	return &v, nil
}

func TestCanceledCallerDoesNotFailSharedLoad(t *testing.T) {
	l := &blockingLoader{started: make(chan struct{}), release: make(chan struct{})}
	c := New(WithLoader(l.load))

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.Get(ctxA, "a")
		errA <- err
	}()
	<-l.started

	type result struct {
		v   *string
		err error
	}
	resB := make(chan result, 1)
	go func() {
		v, err := c.Get(context.Background(), "a")
		resB <- result{v, err}
	}()

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("canceled caller did not return")
	}

	close(l.release)
	select {
	case r := <-resB:
		require.NoError(t, r.err)
		assert.Equal(t, "value-a", *r.v)
	case <-time.After(time.Second):
		t.Fatal("second caller did not return")
	}
	assert.Equal(t, int32(1), l.calls.Load())

	// the shared load stored its result
	v, err := c.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "value-a", *v)
	assert.Equal(t, int32(1), l.calls.Load())
}
