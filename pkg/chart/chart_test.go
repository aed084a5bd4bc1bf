package chart

import (
	"errors"
	"testing"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
)

func table(driver string, axis model.Axis, samples ...model.TelemetrySample) *model.NormalizedTelemetryTable {
	return &model.NormalizedTelemetryTable{
		Driver:  model.DriverRef{ID: driver, Label: driver},
		Axis:    axis,
		Samples: samples,
	}
}

func TestSeriesOf(t *testing.T) {
	tab := table("VER", model.AxisDistance,
		model.TelemetrySample{X: 0, Speed: null.From(300.0), Gear: null.From(8.0)},
		model.TelemetrySample{X: 50, Gear: null.From(7.0)},
		model.TelemetrySample{X: 75, Speed: null.From(0.0)},
	)
	got := SeriesOf(tab, model.ChannelSpeed)
	want := Series{Name: "VER", Points: []Point{
		{X: 0, Y: null.From(300.0)},
		{X: 50},
		{X: 75, Y: null.From(0.0)},
	}}
	assert.DeepEqual(t, want, got, cmp.AllowUnexported(null.Val[float64]{}))
}

func TestBuild(t *testing.T) {
	a := table("VER", model.AxisDistance, model.TelemetrySample{X: 0, Speed: null.From(1.0)})
	b := table("SAI", model.AxisDistance, model.TelemetrySample{X: 0, Speed: null.From(2.0)})

	t.Run("default channels", func(t *testing.T) {
		got, err := Build(a, b)
		assert.NilError(t, err)
		assert.Equal(t, len(got), 5)
		for i, c := range model.Channels() {
			assert.Equal(t, got[i].Channel, c)
			assert.Equal(t, got[i].XTitle, "Distance (m)")
			assert.Equal(t, len(got[i].Series), 2)
			assert.Equal(t, got[i].Series[0].Name, "VER")
			assert.Equal(t, got[i].Series[1].Name, "SAI")
		}
	})
	t.Run("selected channels", func(t *testing.T) {
		got, err := Build(a, b, model.ChannelRPM)
		assert.NilError(t, err)
		assert.Equal(t, len(got), 1)
		assert.Equal(t, got[0].YTitle, "RPM")
	})
	t.Run("axis mismatch", func(t *testing.T) {
		_, err := Build(a, table("SAI", model.AxisTime))
		assert.Assert(t, errors.Is(err, ErrAxisMismatch))
	})
}

func TestFormatLapTime(t *testing.T) {
	tests := []struct {
		name string
		arg  time.Duration
		want string
	}{
		{"zero", 0, "0:00.000"},
		{"sub minute", 59*time.Second + 999*time.Millisecond, "0:59.999"},
		{"regular", 85250 * time.Millisecond, "1:25.250"},
		{"rounds up", 80*time.Second + 299600*time.Microsecond, "1:20.300"},
		{"rounds into minute", 59*time.Second + 999600*time.Microsecond, "1:00.000"},
		{"long", 10*time.Minute + 5*time.Second + 7*time.Millisecond, "10:05.007"},
		{"negative", -1500 * time.Millisecond, "-0:01.500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, FormatLapTime(tt.arg), tt.want)
		})
	}
}

func TestStats(t *testing.T) {
	s := Series{Points: []Point{
		{X: 0, Y: null.From(10.0)},
		{X: 1},
		{X: 2, Y: null.From(30.0)},
		{X: 3, Y: null.From(-4.0)},
	}}
	assert.DeepEqual(t, s.Stats(), Stats{Count: 3, Min: -4, Max: 30, Mean: 12})
	assert.DeepEqual(t, Series{Points: []Point{{X: 1}}}.Stats(), Stats{})
}

func TestParseChannels(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []model.Channel
		wantErr bool
	}{
		{name: "none", args: nil, want: nil},
		{name: "list", args: []string{"speed", "Gear"}, want: []model.Channel{"speed", "gear"}},
		{name: "comma separated", args: []string{"rpm, brake"}, want: []model.Channel{"rpm", "brake"}},
		{name: "unknown", args: []string{"drs"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChannels(tt.args...)
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrInvalidQuery)
				return
			}
			assert.NilError(t, err)
			assert.DeepEqual(t, tt.want, got)
		})
	}
}
