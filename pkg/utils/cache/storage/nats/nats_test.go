package nats

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/api"
	"github.com/mpapenbr/f1-telemetry-lab/testsupport/tcnats"
)

type key struct {
	Session string
	Driver  string
}

func keyString(k key) string { return k.Session + "/" + k.Driver }

func bucketName(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("ftl_test_%d", time.Now().UnixNano())
}

func TestComposeKey(t *testing.T) {
	s := &Storage[key, string]{keyFunc: keyString}
	valid := regexp.MustCompile(`^[-/_=.a-zA-Z0-9]+$`)

	a := s.composeKey(key{"9141", "1"})
	assert.Equal(t, a, s.composeKey(key{"9141", "1"}))
	assert.NotEqual(t, a, s.composeKey(key{"9141", "55"}))
	// keys with spaces or wildcards are not valid in a bucket
	b := s.composeKey(key{"Italian Grand Prix *", ">"})
	assert.Regexp(t, valid, a)
	assert.Regexp(t, valid, b)
}

func TestSessionRowsRoundTrip(t *testing.T) {
	tcnats.SkipWithoutNATS(t)
	nc := tcnats.Connect(t)
	ctx := context.Background()

	s, err := New(nc,
		WithBucket[key, []api.SessionRow](bucketName(t)),
		WithKeyFunc[key, []api.SessionRow](keyString))
	require.NoError(t, err)

	rows := []api.SessionRow{
		{
			Key: "9141", Season: 2023, EventName: "Italian Grand Prix",
			CircuitName: "Monza", Label: "Race", Type: model.STRace,
			DateStart: time.Date(2023, 9, 3, 13, 0, 0, 0, time.UTC),
		},
		{
			Key: "9139", Season: 2023, Label: "Sprint", Type: model.STUnknown,
			DateStart: time.Date(2023, 7, 29, 14, 30, 0, 0, time.UTC),
		},
	}
	k := key{Session: "2023"}
	_, found, err := s.Get(ctx, k)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, k, &rows, 0))
	got, found, err := s.Get(ctx, k)
	require.NoError(t, err)
	require.True(t, found)
	if diff := cmp.Diff(rows, *got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, s.Delete(ctx, k))
	_, found, err = s.Get(ctx, k)
	require.NoError(t, err)
	assert.False(t, found)
	// deleting a missing key is not an error
	assert.NoError(t, s.Delete(ctx, key{Session: "1950"}))
}

func TestLapRowsRoundTrip(t *testing.T) {
	tcnats.SkipWithoutNATS(t)
	nc := tcnats.Connect(t)
	ctx := context.Background()

	s, err := New(nc,
		WithBucket[key, []api.LapRow](bucketName(t)),
		WithKeyFunc[key, []api.LapRow](keyString))
	require.NoError(t, err)

	rows := []api.LapRow{
		{
			Number:   1,
			Start:    null.From(time.Date(2023, 9, 3, 13, 3, 0, 0, time.UTC)),
			Duration: null.Val[time.Duration]{},
			PitOut:   true,
		},
		{
			Number:   2,
			Start:    null.From(time.Date(2023, 9, 3, 13, 4, 30, 0, time.UTC)),
			Duration: null.From(85250 * time.Millisecond),
		},
	}
	k := key{Session: "9141", Driver: "1"}
	require.NoError(t, s.Set(ctx, k, &rows, 0))
	got, found, err := s.Get(ctx, k)
	require.NoError(t, err)
	require.True(t, found)
	opt := cmp.AllowUnexported(null.Val[time.Time]{}, null.Val[time.Duration]{})
	if diff := cmp.Diff(rows, *got, opt); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	// entries are shared between storages using the same bucket
	other, err := New(nc,
		WithBucket[key, []api.LapRow](s.bucket),
		WithKeyFunc[key, []api.LapRow](keyString))
	require.NoError(t, err)
	got, found, err = other.Get(ctx, k)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, *got, 2)
}
