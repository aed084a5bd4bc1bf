package compare

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/chart"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
)

func TestNewReport(t *testing.T) {
	s, _ := archiveService(t)
	res, err := s.Compare(context.Background(), Request{
		Query: monzaRace(), DriverA: "VER", DriverB: "SAI", Mode: model.ModeLap,
	})
	require.NoError(t, err)

	rep, err := NewReport(res, model.ChannelSpeed, model.ChannelGear)
	require.NoError(t, err)
	assert.Equal(t, model.AxisDistance, rep.Axis)
	assert.Len(t, rep.Charts, 2)
	require.Len(t, rep.Drivers, 2)
	require.NotNil(t, rep.Drivers[0].Lap)
	assert.Equal(t, "1:25.250", rep.Drivers[0].Lap.LapTime)
	assert.Equal(t, "1:26.500", rep.Drivers[1].Lap.LapTime)
	assert.Equal(t, 3, rep.Drivers[0].Samples)
	assert.Equal(t, 4, rep.Drivers[1].Samples)
}

func TestNewReportAxisMismatch(t *testing.T) {
	res := &Result{
		A: &model.NormalizedTelemetryTable{Axis: model.AxisDistance, Lap: &model.LapRecord{Duration: time.Minute}},
		B: &model.NormalizedTelemetryTable{Axis: model.AxisTime},
	}
	_, err := NewReport(res)
	assert.ErrorIs(t, err, chart.ErrAxisMismatch)
}
