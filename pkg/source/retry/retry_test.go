package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/api"
)

// flakyClient fails the first failures calls with err
type flakyClient struct {
	api.Client
	failures int
	err      error
	calls    int
}

func (f *flakyClient) Name() string { return "flaky" }

func (f *flakyClient) DefaultMode() model.Mode { return model.ModeLap }

func (f *flakyClient) Sessions(_ context.Context, year int) ([]api.SessionRow, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return []api.SessionRow{{Key: "1", Season: year}}, nil
}

func TestRetry(t *testing.T) {
	unavailable := api.Unavailable("sessions", errors.New("connection refused"))
	tests := []struct {
		name       string
		maxRetries uint64
		failures   int
		err        error
		wantCalls  int
		wantErr    error
	}{
		{
			name: "recovers", maxRetries: 3, failures: 2, err: unavailable,
			wantCalls: 3,
		},
		{
			name: "gives up", maxRetries: 2, failures: 5, err: unavailable,
			wantCalls: 3, wantErr: api.ErrRemoteUnavailable,
		},
		{
			name: "bad response is permanent", maxRetries: 3, failures: 1,
			err: api.BadResponse("sessions", "garbage"), wantCalls: 1, wantErr: api.ErrBadResponse,
		},
		{
			name: "empty result is permanent", maxRetries: 3, failures: 1,
			err: api.Empty("sessions"), wantCalls: 1, wantErr: api.ErrEmptyResult,
		},
		{
			name: "disabled", maxRetries: 0, failures: 1, err: unavailable,
			wantCalls: 1, wantErr: api.ErrRemoteUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &flakyClient{failures: tt.failures, err: tt.err}
			c := New(f,
				WithMaxRetries(tt.maxRetries),
				WithInitialInterval(time.Millisecond),
				WithMaxInterval(2*time.Millisecond))
			got, err := c.Sessions(context.Background(), 2023)
			assert.Equal(t, tt.wantCalls, f.calls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 2023, got[0].Season)
		})
	}
}

func TestRetryStopsWithContext(t *testing.T) {
	f := &flakyClient{failures: 100, err: api.Unavailable("sessions", errors.New("down"))}
	c := New(f, WithMaxRetries(100), WithInitialInterval(20*time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Sessions(ctx, 2023)
	assert.Error(t, err)
	assert.Less(t, f.calls, 100)
}

func TestDelegates(t *testing.T) {
	c := New(&flakyClient{})
	assert.Equal(t, "flaky", c.Name())
	assert.Equal(t, model.ModeLap, c.DefaultMode())
}
