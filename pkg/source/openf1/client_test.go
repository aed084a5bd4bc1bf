package openf1

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/api"
	"github.com/mpapenbr/f1-telemetry-lab/testsupport/basedata"
	"github.com/mpapenbr/f1-telemetry-lab/testsupport/fakeopenf1"
)

func setup(t *testing.T) (*fakeopenf1.Server, *Client) {
	t.Helper()
	srv := fakeopenf1.New(basedata.SampleArchive())
	t.Cleanup(srv.Close)
	return srv, New(WithBaseURL(srv.BaseURL()+"/"), WithHTTPClient(srv.Client()))
}

func TestClientSessions(t *testing.T) {
	srv, c := setup(t)
	ctx := context.Background()

	got, err := c.Sessions(ctx, 2023)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "9141", got[2].Key)
	assert.Equal(t, model.STRace, got[2].Type)
	assert.Equal(t, "Italian Grand Prix", got[2].EventName)
	assert.True(t, basedata.MonzaRaceStart().Equal(got[2].DateStart))

	_, err = c.Sessions(ctx, 2030)
	assert.ErrorIs(t, err, api.ErrEmptyResult)
	assert.Equal(t, 2, srv.Hits("sessions"))
}

func TestClientDriversAndLaps(t *testing.T) {
	_, c := setup(t)
	ctx := context.Background()

	drivers, err := c.Drivers(ctx, "9141")
	require.NoError(t, err)
	ids := make([]string, 0, len(drivers))
	for _, d := range drivers {
		ids = append(ids, d.ID)
	}
	assert.ElementsMatch(t, []string{"1", "55", "16", "44"}, ids)

	laps, err := c.Laps(ctx, "9141", "1")
	require.NoError(t, err)
	require.Len(t, laps, 4)
	rec := laps[1].Record()
	assert.True(t, rec.Valid)
	assert.Equal(t, 85250*time.Millisecond, rec.Duration)
	assert.True(t, basedata.MonzaRaceStart().Add(98500*time.Millisecond).Equal(rec.Start))

	data, err := c.CarData(ctx, "9141", "55")
	require.NoError(t, err)
	require.Len(t, data, 5)
	assert.False(t, data[2].Speed.IsValue(), "absent speed must stay null")
	assert.Equal(t, 8.0, data[0].Gear.MustGet())
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "server error", status: http.StatusInternalServerError, wantErr: api.ErrRemoteUnavailable},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: api.ErrRemoteUnavailable},
		{name: "not found", status: http.StatusNotFound, wantErr: api.ErrEmptyResult},
		{name: "bad request", status: http.StatusBadRequest, wantErr: api.ErrBadResponse},
		{name: "non tabular", body: `{"detail":"oops"}`, wantErr: api.ErrBadResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, c := setup(t)
			if tt.status != 0 {
				srv.FailWith("drivers", tt.status)
			}
			if tt.body != "" {
				srv.RespondWith("drivers", tt.body)
			}
			_, err := c.Drivers(context.Background(), "9141")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClientUnreachable(t *testing.T) {
	srv, _ := setup(t)
	url := srv.BaseURL()
	srv.Close()
	c := New(WithBaseURL(url), WithTimeout(time.Second))
	_, err := c.Sessions(context.Background(), 2023)
	if !errors.Is(err, api.ErrRemoteUnavailable) {
		t.Errorf("Sessions() error = %v, want %v", err, api.ErrRemoteUnavailable)
	}
}
