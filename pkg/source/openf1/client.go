package openf1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mpapenbr/f1-telemetry-lab/log"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/api"
)

const (
	BackendName    = "openf1"
	DefaultBaseURL = "https://api.openf1.org/v1"

	maxBodySize = 256 << 20
)

type Option func(*Client)

func WithBaseURL(arg string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(arg, "/")
	}
}

func WithHTTPClient(arg *http.Client) Option {
	return func(c *Client) {
		c.httpClient = arg
	}
}

func WithTimeout(arg time.Duration) Option {
	return func(c *Client) {
		c.timeout = arg
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(c *Client) {
		c.log = arg
	}
}

// Client queries the public OpenF1 REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	log        *log.Logger
}

var _ api.Client = (*Client)(nil)

func New(opts ...Option) *Client {
	ret := &Client{
		baseURL: DefaultBaseURL,
		timeout: api.DefaultTimeout,
		log:     log.Default().Named("source.openf1"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.httpClient == nil {
		ret.httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return ret
}

func (c *Client) Name() string { return BackendName }

func (c *Client) DefaultMode() model.Mode { return model.ModeSession }

func (c *Client) Sessions(ctx context.Context, year int) ([]api.SessionRow, error) {
	body, err := c.get(ctx, "sessions", url.Values{"year": {strconv.Itoa(year)}})
	if err != nil {
		return nil, err
	}
	return decodeRows(body, sessionSchema)
}

func (c *Client) Drivers(ctx context.Context, sessionKey string) ([]api.DriverRow, error) {
	body, err := c.get(ctx, "drivers", url.Values{"session_key": {sessionKey}})
	if err != nil {
		return nil, err
	}
	return decodeRows(body, driverSchema)
}

//nolint:whitespace // editor/linter issue
func (c *Client) CarData(
	ctx context.Context,
	sessionKey, driverID string,
) ([]api.TelemetryRow, error) {
	body, err := c.get(ctx, "car_data", url.Values{
		"session_key":   {sessionKey},
		"driver_number": {driverID},
	})
	if err != nil {
		return nil, err
	}
	return decodeRows(body, telemetrySchema)
}

//nolint:whitespace // editor/linter issue
func (c *Client) Laps(
	ctx context.Context,
	sessionKey, driverID string,
) ([]api.LapRow, error) {
	body, err := c.get(ctx, "laps", url.Values{
		"session_key":   {sessionKey},
		"driver_number": {driverID},
	})
	if err != nil {
		return nil, err
	}
	return decodeRows(body, lapSchema)
}

// get performs the request and maps transport problems to the api error kinds.
// The API answers queries without matching rows either with [] or with 404.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	target := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, api.BadResponse(endpoint, "invalid request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("request failed", log.String("url", target), log.ErrorField(err))
		return nil, api.Unavailable(endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, api.Unavailable(endpoint, err)
		}
		return nil, api.Unavailable(endpoint, fmt.Errorf("reading body: %w", err))
	}
	c.log.Debug("request done",
		log.String("url", target),
		log.Int("status", resp.StatusCode),
		log.Int("bytes", len(body)),
		log.Duration("duration", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, api.Empty(endpoint)
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= http.StatusInternalServerError:
		return nil, api.Unavailable(endpoint,
			fmt.Errorf("http status %d", resp.StatusCode))
	default:
		return nil, api.BadResponse(endpoint, "http status %d", resp.StatusCode)
	}
}
