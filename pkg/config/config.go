package config

import (
	"time"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/factory"
)

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	Backend           string // openf1 or archive
	OpenF1URL         string // base url of the REST API
	ArchiveURL        string // postgresql:// url, sqlite3:// url or path of a sqlite archive
	RequestTimeout    string // timeout per backend call
	MaxRetries        int    // retries for unavailable backends (0 disables retries)
	CacheTTL          string // validity of cached backend results
	CacheCapacity     int    // max number of cached results per query kind (memory storage)
	CacheStorage      string // memory or nats
	NATSURL           string // url of the NATS server (nats cache storage)
	WaitForServices   string // duration to wait for other services to be ready
	LogLevel          string // sets the log level (zap log level values)
	SQLLogLevel       string // sets the log level for sql subsystem
	LogFormat         string // text vs json
	LogFilter         string // zapfilter rules, e.g. "*:* -debug:cache*"
	EnableTelemetry   bool   // enable telemetry
	TelemetryEndpoint string // endpoint for telemetry (empty: stdout)
	ServerAddr        string // listen addr of the HTTP API
	TLSCertFile       string // path to TLS certificate (enables https)
	TLSKeyFile        string // path to TLS key
)

// ClientConfig assembles the client chain configuration from the resolved values.
// Invalid durations fall back to the defaults.
func ClientConfig() *factory.Config {
	return &factory.Config{
		Backend:       Backend,
		OpenF1URL:     OpenF1URL,
		ArchiveURL:    ArchiveURL,
		Timeout:       ParseDuration(RequestTimeout, 10*time.Second),
		MaxRetries:    uint64(max(MaxRetries, 0)),
		CacheTTL:      ParseDuration(CacheTTL, 5*time.Minute),
		CacheCapacity: CacheCapacity,
		CacheStorage:  CacheStorage,
		NATSURL:       NATSURL,
		Telemetry:     EnableTelemetry,
	}
}

func ParseDuration(s string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}
