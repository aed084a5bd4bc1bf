package factory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/f1-telemetry-lab/log"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/db/postgres"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/db/sqlite"
	sqlitestore "github.com/mpapenbr/f1-telemetry-lab/pkg/repository/sqlite"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/api"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/archive"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/cached"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/openf1"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/retry"
)

const (
	StorageMemory = "memory"
	StorageNATS   = "nats"
)

var (
	ErrUnknownBackend = errors.New("unknown backend")
	ErrUnknownStorage = errors.New("unknown cache storage")
	ErrNoArchiveURL   = errors.New("archive url required")
)

// Config describes the client chain: backend, retry policy and cache.
type Config struct {
	Backend       string // openf1 or archive
	OpenF1URL     string
	ArchiveURL    string // postgresql:// url, sqlite3:// url or path of a sqlite file
	Timeout       time.Duration
	MaxRetries    uint64
	CacheTTL      time.Duration
	CacheCapacity int
	CacheStorage  string // memory or nats
	NATSURL       string
	Telemetry     bool        // adds otel tracing to archive queries
	SQLLogger     *log.Logger // logs archive queries if set
}

// Result holds the decorated client. Close releases databases and connections.
type Result struct {
	Client  api.Client
	closers []func()
}

func (r *Result) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// New builds cache(retry(backend)). Cache hits never reach the retry policy.
func New(ctx context.Context, cfg *Config) (*Result, error) {
	ret := &Result{}
	backend, err := ret.backend(ctx, cfg)
	if err != nil {
		ret.Close()
		return nil, err
	}
	client := api.Client(backend)
	if cfg.MaxRetries > 0 {
		client = retry.New(client, retry.WithMaxRetries(cfg.MaxRetries))
	}

	opts := []cached.Option{
		cached.WithExpiration(cfg.CacheTTL),
		cached.WithCapacity(cfg.CacheCapacity),
	}
	switch cfg.CacheStorage {
	case "", StorageMemory:
	case StorageNATS:
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			ret.Close()
			return nil, fmt.Errorf("connecting to nats: %w", err)
		}
		ret.closers = append(ret.closers, nc.Close)
		opts = append(opts, cached.WithNATS(nc))
	default:
		ret.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnknownStorage, cfg.CacheStorage)
	}
	if ret.Client, err = cached.New(client, opts...); err != nil {
		ret.Close()
		return nil, err
	}
	return ret, nil
}

func (r *Result) backend(ctx context.Context, cfg *Config) (api.Client, error) {
	switch cfg.Backend {
	case openf1.BackendName:
		opts := []openf1.Option{openf1.WithTimeout(cfg.Timeout)}
		if cfg.OpenF1URL != "" {
			opts = append(opts, openf1.WithBaseURL(cfg.OpenF1URL))
		}
		return openf1.New(opts...), nil
	case archive.BackendName:
		if cfg.ArchiveURL == "" {
			return nil, ErrNoArchiveURL
		}
		store, err := r.archiveStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return archive.New(store, archive.WithTimeout(cfg.Timeout)), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
}

func (r *Result) archiveStore(ctx context.Context, cfg *Config) (archive.Store, error) {
	if sqlite.IsSQLite(cfg.ArchiveURL) {
		db, err := sqlite.Open(ctx, cfg.ArchiveURL)
		if err != nil {
			return nil, api.Unavailable("archive", err)
		}
		//nolint:errcheck // read only
		r.closers = append(r.closers, func() { db.Close() })
		return sqlitestore.New(db), nil
	}
	var pgOptions []postgres.PoolConfigOption
	if cfg.SQLLogger != nil {
		pgOptions = append(pgOptions, postgres.WithTracer(cfg.SQLLogger))
	}
	if cfg.Telemetry {
		pgOptions = append(pgOptions, postgres.WithOtel())
	}
	pool, err := postgres.InitWithURL(ctx, cfg.ArchiveURL, pgOptions...)
	if err != nil {
		return nil, api.Unavailable("archive", err)
	}
	r.closers = append(r.closers, pool.Close)
	return archive.NewPostgresStore(pool), nil
}
