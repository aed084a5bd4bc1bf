//nolint:funlen // ok for test code
package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/repository/sqlite"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/api"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/archive"
	"github.com/mpapenbr/f1-telemetry-lab/testsupport/basedata"
	"github.com/mpapenbr/f1-telemetry-lab/testsupport/fakeclient"
	"github.com/mpapenbr/f1-telemetry-lab/testsupport/testdb"
)

func archiveClient(t *testing.T) api.Client {
	t.Helper()
	db, _ := testdb.InitSQLiteDb(t)
	require.NoError(t, basedata.SampleArchive().InsertSQLite(context.Background(), db))
	return archive.New(sqlite.New(db))
}

func monzaRace() model.SessionHandle {
	return model.SessionHandle{Backend: archive.BackendName, Key: "9141", Season: 2023}
}

func xs(table *model.NormalizedTelemetryTable) []float64 {
	ret := make([]float64, len(table.Samples))
	for i := range table.Samples {
		ret[i] = table.Samples[i].X
	}
	return ret
}

func assertMonotonic(t *testing.T, table *model.NormalizedTelemetryTable) {
	t.Helper()
	for i := 1; i < len(table.Samples); i++ {
		assert.GreaterOrEqual(t, table.Samples[i].X, table.Samples[i-1].X,
			"x must be non-decreasing at %d", i)
	}
}

func TestLapRelativeWithBackendDistance(t *testing.T) {
	n := NewNormalizer(archiveClient(t))
	got, err := n.Normalize(context.Background(), monzaRace(),
		model.DriverRef{ID: "VER", Label: "VER"}, model.ModeDefault)
	require.NoError(t, err)

	assert.Equal(t, model.ModeLap, got.Mode)
	assert.Equal(t, model.AxisDistance, got.Axis)
	require.NotNil(t, got.Lap)
	// lap 2 and 3 have the same time
	assert.Equal(t, 2, got.Lap.Number)
	assert.Equal(t, 85250*time.Millisecond, got.Lap.Duration)
	assert.Equal(t, []float64{0, 600, 1500}, xs(got))
	assert.Equal(t, 320.0, got.Samples[0].Speed.MustGet())
	assert.False(t, got.Samples[2].Gear.IsValue(), "absent gear stays null")
	assertMonotonic(t, got)
}

func TestLapRelativeIntegratesSpeed(t *testing.T) {
	n := NewNormalizer(archiveClient(t))
	got, err := n.Normalize(context.Background(), monzaRace(),
		model.DriverRef{ID: "SAI"}, model.ModeLap)
	require.NoError(t, err)

	// lap 2 is faster but deleted
	assert.Equal(t, 3, got.Lap.Number)
	got2 := xs(got)
	require.Len(t, got2, 4)
	for i, want := range []float64{0, 1275, 1275, 3675} {
		assert.InDelta(t, want, got2[i], 1e-6)
	}
	assertMonotonic(t, got)
}

func TestLapRelativeErrors(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		wantErr error
	}{
		{name: "no valid lap", driver: "LEC", wantErr: ErrNoValidLap},
		{name: "no laps at all", driver: "ALO", wantErr: ErrNoValidLap},
		{name: "no car data", driver: "HAM", wantErr: ErrNoTelemetryData},
	}
	n := NewNormalizer(archiveClient(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(context.Background(), monzaRace(),
				model.DriverRef{ID: tt.driver}, model.ModeLap)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSessionRelative(t *testing.T) {
	n := NewNormalizer(archiveClient(t))
	got, err := n.Normalize(context.Background(), monzaRace(),
		model.DriverRef{ID: "VER"}, model.ModeSession)
	require.NoError(t, err)

	assert.Equal(t, model.AxisTime, got.Axis)
	assert.Nil(t, got.Lap)
	require.Len(t, got.Samples, 5)
	start := float64(basedata.MonzaRaceStart().Unix())
	assert.InDelta(t, start+50, got.Samples[0].X, 1e-3)
	assert.InDelta(t, start+98.5, got.Samples[1].X, 1e-3)
	assertMonotonic(t, got)
}

func TestSortsAndWindows(t *testing.T) {
	start := time.Date(2023, 9, 3, 13, 0, 0, 0, time.UTC)
	at := func(secs float64) time.Time {
		return start.Add(time.Duration(secs * float64(time.Second)))
	}
	c := fakeclient.New()
	c.LapRows["1"] = map[string][]api.LapRow{
		"44": {
			{Number: 1, Start: null.From(at(0)), Duration: null.From(10 * time.Second)},
			{Number: 2, Start: null.From(at(10)), Duration: null.From(9 * time.Second)},
		},
	}
	// unordered rows, one outside the lap, one exactly at the lap end
	c.CarRows["1"] = map[string][]api.TelemetryRow{
		"44": {
			{Date: at(15), Speed: null.From(36.0)},
			{Date: at(5), Speed: null.From(100.0)},
			{Date: at(10), Speed: null.From(72.0)},
			{Date: at(19), Speed: null.From(72.0)},
			{Date: at(12), Speed: null.From(-36.0)},
		},
	}
	n := NewNormalizer(c)
	h := model.SessionHandle{Key: "1"}
	got, err := n.Normalize(context.Background(), h, model.DriverRef{ID: "44"}, model.ModeLap)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Lap.Number)
	require.Len(t, got.Samples, 3)
	// 10s: 0, 12s: negative speed clamps, 15s: 36 km/h for 3s
	assert.Equal(t, at(10), got.Samples[0].Timestamp)
	assert.InDelta(t, 0, got.Samples[1].X, 1e-9)
	assert.InDelta(t, 30, got.Samples[2].X, 1e-9)

	// samples exist, but none within the fastest lap
	c.CarRows["1"]["44"] = []api.TelemetryRow{{Date: at(5), Speed: null.From(100.0)}}
	_, err = n.Normalize(context.Background(), h, model.DriverRef{ID: "44"}, model.ModeLap)
	assert.ErrorIs(t, err, ErrNoTelemetryData)
}

func TestIdempotent(t *testing.T) {
	n := NewNormalizer(archiveClient(t))
	ctx := context.Background()
	a, err := n.Normalize(ctx, monzaRace(), model.DriverRef{ID: "SAI"}, model.ModeLap)
	require.NoError(t, err)
	b, err := n.Normalize(ctx, monzaRace(), model.DriverRef{ID: "SAI"}, model.ModeLap)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTransportErrorsPass(t *testing.T) {
	c := fakeclient.New()
	c.Err["laps"] = api.Unavailable("laps", errors.New("timeout"))
	n := NewNormalizer(c)
	_, err := n.Normalize(context.Background(), model.SessionHandle{Key: "1"},
		model.DriverRef{ID: "1"}, model.ModeLap)
	assert.ErrorIs(t, err, api.ErrRemoteUnavailable)
	assert.Equal(t, 0, c.Calls("car_data"))
}

func TestFastestLap(t *testing.T) {
	d := func(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }
	tests := []struct {
		name    string
		laps    []model.LapRecord
		wantNum int
		wantOk  bool
	}{
		{name: "none", laps: nil},
		{
			name:   "only invalid",
			laps:   []model.LapRecord{{Number: 1, Duration: d(80000)}},
			wantOk: false,
		},
		{
			name: "strict minimum",
			laps: []model.LapRecord{
				{Number: 1, Duration: d(90000), Valid: true},
				{Number: 2, Duration: d(85000), Valid: true},
				{Number: 3, Duration: d(80000)},
				{Number: 4, Duration: d(85001), Valid: true},
			},
			wantNum: 2, wantOk: true,
		},
		{
			name: "tie resolves to lowest number",
			laps: []model.LapRecord{
				{Number: 7, Duration: d(85000), Valid: true},
				{Number: 3, Duration: d(85000), Valid: true},
			},
			wantNum: 3, wantOk: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FastestLap(tt.laps)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.wantNum, got.Number)
		})
	}
}
