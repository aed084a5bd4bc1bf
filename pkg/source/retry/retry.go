//nolint:whitespace //can't make both the linter and editor happy :(
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mpapenbr/f1-telemetry-lab/log"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/api"
)

type Option func(*Client)

// WithMaxRetries sets the number of retries after the first attempt.
// 0 disables retries.
func WithMaxRetries(arg uint64) Option {
	return func(c *Client) {
		c.maxRetries = arg
	}
}

func WithInitialInterval(arg time.Duration) Option {
	return func(c *Client) {
		c.initialInterval = arg
	}
}

func WithMaxInterval(arg time.Duration) Option {
	return func(c *Client) {
		c.maxInterval = arg
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(c *Client) {
		c.log = arg
	}
}

// Client retries calls failing with api.ErrRemoteUnavailable using exponential
// backoff. All other errors are returned immediately.
type Client struct {
	api.Client
	maxRetries      uint64
	initialInterval time.Duration
	maxInterval     time.Duration
	log             *log.Logger
}

var _ api.Client = (*Client)(nil)

func New(client api.Client, opts ...Option) *Client {
	ret := &Client{
		Client:          client,
		initialInterval: 500 * time.Millisecond,
		maxInterval:     5 * time.Second,
		log:             log.Default().Named("source.retry"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (c *Client) Sessions(ctx context.Context, year int) ([]api.SessionRow, error) {
	return do(ctx, c, "sessions", func() ([]api.SessionRow, error) {
		return c.Client.Sessions(ctx, year)
	})
}

func (c *Client) Drivers(ctx context.Context, sessionKey string) ([]api.DriverRow, error) {
	return do(ctx, c, "drivers", func() ([]api.DriverRow, error) {
		return c.Client.Drivers(ctx, sessionKey)
	})
}

func (c *Client) CarData(
	ctx context.Context,
	sessionKey, driverID string,
) ([]api.TelemetryRow, error) {
	return do(ctx, c, "car_data", func() ([]api.TelemetryRow, error) {
		return c.Client.CarData(ctx, sessionKey, driverID)
	})
}

func (c *Client) Laps(
	ctx context.Context,
	sessionKey, driverID string,
) ([]api.LapRow, error) {
	return do(ctx, c, "laps", func() ([]api.LapRow, error) {
		return c.Client.Laps(ctx, sessionKey, driverID)
	})
}

func (c *Client) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.MaxInterval = c.maxInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)
}

func do[T any](ctx context.Context, c *Client, what string, op func() (T, error)) (T, error) {
	if c.maxRetries == 0 {
		return op()
	}
	attempt := 0
	return backoff.RetryNotifyWithData(func() (T, error) {
		attempt++
		ret, err := op()
		if err != nil && !errors.Is(err, api.ErrRemoteUnavailable) {
			return ret, backoff.Permanent(err)
		}
		return ret, err
	}, c.policy(ctx), func(err error, wait time.Duration) {
		c.log.Debug("retrying",
			log.String("query", what),
			log.Int("attempt", attempt),
			log.Duration("wait", wait),
			log.ErrorField(err))
	})
}
