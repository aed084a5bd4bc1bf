//nolint:whitespace //can't make both the linter and editor happy :(
package cached

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/f1-telemetry-lab/log"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/api"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/utils/cache"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/utils/cache/loadercache"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/utils/cache/storage/memory"
	natsstorage "github.com/mpapenbr/f1-telemetry-lab/pkg/utils/cache/storage/nats"
)

type (
	Option func(*config)
	config struct {
		expiration time.Duration
		capacity   int
		nc         *nats.Conn
		log        *log.Logger
	}

	// Key identifies a query. Unused fields stay empty.
	Key struct {
		Backend string
		Year    int
		Session string
		Driver  string
	}

	// Client memoizes the results of the wrapped client per parameter tuple.
	// Errors are not cached. Returned slices are shared and must not be modified.
	Client struct {
		api.Client
		sessions cache.Cache[Key, []api.SessionRow]
		drivers  cache.Cache[Key, []api.DriverRow]
		carData  cache.Cache[Key, []api.TelemetryRow]
		laps     cache.Cache[Key, []api.LapRow]
	}
)

var _ api.Client = (*Client)(nil)

// WithExpiration sets the validity of cached results. 0 keeps them for the lifetime
// of the process (memory) or the bucket (nats)
func WithExpiration(arg time.Duration) Option {
	return func(c *config) {
		c.expiration = arg
	}
}

// WithCapacity limits the entries per query kind of the memory storage
func WithCapacity(arg int) Option {
	return func(c *config) {
		c.capacity = arg
	}
}

// WithNATS stores the results in JetStream key-value buckets shared by all
// processes using the same NATS server.
func WithNATS(nc *nats.Conn) Option {
	return func(c *config) {
		c.nc = nc
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(c *config) {
		c.log = arg
	}
}

func New(client api.Client, opts ...Option) (*Client, error) {
	cfg := &config{
		log: log.Default().Named("source.cached"),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	ret := &Client{Client: client}
	var err error
	if ret.sessions, err = newCache(cfg, "sessions",
		func(ctx context.Context, k Key) (*[]api.SessionRow, error) {
			return wrap(client.Sessions(ctx, k.Year))
		}); err != nil {
		return nil, err
	}
	if ret.drivers, err = newCache(cfg, "drivers",
		func(ctx context.Context, k Key) (*[]api.DriverRow, error) {
			return wrap(client.Drivers(ctx, k.Session))
		}); err != nil {
		return nil, err
	}
	if ret.carData, err = newCache(cfg, "car_data",
		func(ctx context.Context, k Key) (*[]api.TelemetryRow, error) {
			return wrap(client.CarData(ctx, k.Session, k.Driver))
		}); err != nil {
		return nil, err
	}
	if ret.laps, err = newCache(cfg, "laps",
		func(ctx context.Context, k Key) (*[]api.LapRow, error) {
			return wrap(client.Laps(ctx, k.Session, k.Driver))
		}); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *Client) Sessions(ctx context.Context, year int) ([]api.SessionRow, error) {
	return unwrap(c.sessions.Get(ctx, Key{Backend: c.Name(), Year: year}))
}

func (c *Client) Drivers(ctx context.Context, sessionKey string) ([]api.DriverRow, error) {
	return unwrap(c.drivers.Get(ctx, Key{Backend: c.Name(), Session: sessionKey}))
}

func (c *Client) CarData(
	ctx context.Context,
	sessionKey, driverID string,
) ([]api.TelemetryRow, error) {
	return unwrap(c.carData.Get(ctx,
		Key{Backend: c.Name(), Session: sessionKey, Driver: driverID}))
}

func (c *Client) Laps(
	ctx context.Context,
	sessionKey, driverID string,
) ([]api.LapRow, error) {
	return unwrap(c.laps.Get(ctx,
		Key{Backend: c.Name(), Session: sessionKey, Driver: driverID}))
}

func newCache[V any](
	cfg *config,
	name string,
	loader loadercache.LoaderFunc[Key, V],
) (cache.Cache[Key, V], error) {
	var storage cache.Storage[Key, V]
	if cfg.nc != nil {
		s, err := natsstorage.New(cfg.nc,
			natsstorage.WithBucket[Key, V]("ftl_"+name),
			natsstorage.WithTTL[Key, V](cfg.expiration),
			natsstorage.WithKeyFunc[Key, V](keyString),
			natsstorage.WithLogger[Key, V](cfg.log.Named("nats")))
		if err != nil {
			return nil, fmt.Errorf("creating cache storage %s: %w", name, err)
		}
		storage = s
	} else {
		storage = memory.New(memory.WithCapacity[Key, V](cfg.capacity))
	}
	return loadercache.New(
		loadercache.WithName[Key, V](name),
		loadercache.WithLoader(loader),
		loadercache.WithStorage(storage),
		loadercache.WithExpiration[Key, V](cfg.expiration),
		loadercache.WithLogger[Key, V](cfg.log),
	), nil
}

func keyString(k Key) string {
	return fmt.Sprintf("%s/%d/%s/%s", k.Backend, k.Year, k.Session, k.Driver)
}

func wrap[T any](rows []T, err error) (*[]T, error) {
	if err != nil {
		return nil, err
	}
	return &rows, nil
}

func unwrap[T any](rows *[]T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	return *rows, nil
}
