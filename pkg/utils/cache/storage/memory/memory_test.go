package memory

import (
	"context"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func ptr(s string) *string { return &s }

func TestCapacityEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	s := New(WithCapacity[string, string](2))
	assert.NilError(t, s.Set(ctx, "a", ptr("A"), 0))
	assert.NilError(t, s.Set(ctx, "b", ptr("B"), 0))
	// touch a, so b is the least recently used
	_, found, _ := s.Get(ctx, "a")
	assert.Assert(t, found)
	assert.NilError(t, s.Set(ctx, "c", ptr("C"), 0))

	assert.Equal(t, s.Len(), 2)
	_, found, _ = s.Get(ctx, "b")
	assert.Assert(t, !found, "b should have been evicted")
	v, found, _ := s.Get(ctx, "a")
	assert.Assert(t, found)
	assert.Equal(t, *v, "A")
}

func TestExpiration(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2023, 9, 3, 13, 0, 0, 0, time.UTC)
	s := New(WithClock[string, string](func() time.Time { return now }))
	assert.NilError(t, s.Set(ctx, "a", ptr("A"), time.Minute))
	assert.NilError(t, s.Set(ctx, "forever", ptr("F"), 0))

	_, found, _ := s.Get(ctx, "a")
	assert.Assert(t, found)

	now = now.Add(time.Minute)
	_, found, _ = s.Get(ctx, "a")
	assert.Assert(t, !found, "entry should be expired")
	_, found, _ = s.Get(ctx, "forever")
	assert.Assert(t, found)
	assert.Equal(t, s.Len(), 1)
}

func TestOverwriteAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New[string, string]()
	assert.NilError(t, s.Set(ctx, "a", ptr("A"), 0))
	assert.NilError(t, s.Set(ctx, "a", ptr("A2"), 0))
	v, _, _ := s.Get(ctx, "a")
	assert.Equal(t, *v, "A2")
	assert.Equal(t, s.Len(), 1)

	assert.NilError(t, s.Delete(ctx, "a"))
	assert.NilError(t, s.Delete(ctx, "unknown"))
	assert.Equal(t, s.Len(), 0)
}
