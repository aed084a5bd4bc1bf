//nolint:whitespace //can't make both the linter and editor happy :(
package archive

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/aarondl/opt/null"

	"github.com/mpapenbr/f1-telemetry-lab/log"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/repository"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/api"
)

const BackendName = "archive"

type Option func(*Client)

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

// Client serves the archive tables through the api.Client contract.
// Session keys are the decimal session ids. Times stored as seconds since session
// start are converted to absolute timestamps.
type Client struct {
	store   Store
	timeout time.Duration
	log     *log.Logger
}

var _ api.Client = (*Client)(nil)

func New(store Store, opts ...Option) *Client {
	ret := &Client{
		store:   store,
		timeout: api.DefaultTimeout,
		log:     log.Default().Named("source.archive"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (c *Client) Name() string { return BackendName }

func (c *Client) DefaultMode() model.Mode { return model.ModeLap }

func (c *Client) Sessions(ctx context.Context, year int) ([]api.SessionRow, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	data, err := c.store.Sessions(ctx, year)
	if err != nil {
		return nil, c.mapError("sessions", err)
	}
	if len(data) == 0 {
		return nil, api.Empty("sessions")
	}
	ret := make([]api.SessionRow, len(data))
	for i, s := range data {
		ret[i] = sessionRow(s)
	}
	return ret, nil
}

func (c *Client) Drivers(ctx context.Context, sessionKey string) ([]api.DriverRow, error) {
	id, ok := parseKey(sessionKey)
	if !ok {
		return nil, api.Empty("drivers")
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	data, err := c.store.Drivers(ctx, id)
	if err != nil {
		return nil, c.mapError("drivers", err)
	}
	if len(data) == 0 {
		return nil, api.Empty("drivers")
	}
	ret := make([]api.DriverRow, len(data))
	for i, code := range data {
		ret[i] = api.DriverRow{ID: code, Acronym: code}
	}
	return ret, nil
}

func (c *Client) CarData(
	ctx context.Context,
	sessionKey, driverID string,
) ([]api.TelemetryRow, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	s, err := c.session(ctx, "car_data", sessionKey)
	if err != nil {
		return nil, err
	}
	data, err := c.store.CarData(ctx, s.ID, driverID)
	if err != nil {
		return nil, c.mapError("car_data", err)
	}
	if len(data) == 0 {
		return nil, api.Empty("car_data")
	}
	ret := make([]api.TelemetryRow, len(data))
	for i, d := range data {
		ret[i] = api.TelemetryRow{
			Date:     offset(s.DateStart, d.SessionTime),
			Distance: nullable(d.Distance),
			Speed:    nullable(d.Speed),
			Throttle: nullable(d.Throttle),
			Brake:    nullable(d.Brake),
			RPM:      nullable(d.RPM),
			Gear:     nullable(d.Gear),
		}
	}
	return ret, nil
}

func (c *Client) Laps(
	ctx context.Context,
	sessionKey, driverID string,
) ([]api.LapRow, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	s, err := c.session(ctx, "laps", sessionKey)
	if err != nil {
		return nil, err
	}
	data, err := c.store.Laps(ctx, s.ID, driverID)
	if err != nil {
		return nil, c.mapError("laps", err)
	}
	if len(data) == 0 {
		return nil, api.Empty("laps")
	}
	ret := make([]api.LapRow, len(data))
	for i, l := range data {
		ret[i] = api.LapRow{Number: l.LapNumber, PitOut: l.PitOut, Deleted: l.Deleted}
		if l.LapStart != nil {
			ret[i].Start = null.From(offset(s.DateStart, *l.LapStart))
		}
		if l.LapTime != nil {
			ret[i].Duration = null.From(seconds(*l.LapTime))
		}
	}
	return ret, nil
}

func (c *Client) session(
	ctx context.Context,
	what, sessionKey string,
) (*repository.Session, error) {
	id, ok := parseKey(sessionKey)
	if !ok {
		return nil, api.Empty(what)
	}
	s, err := c.store.Session(ctx, id)
	if err != nil {
		return nil, c.mapError(what, err)
	}
	return s, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

func (c *Client) mapError(what string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNoRows):
		return api.Empty(what)
	case errors.Is(err, repository.ErrSchema):
		c.log.Warn("archive schema mismatch", log.String("query", what), log.ErrorField(err))
		return api.BadResponse(what, "%v", err)
	default:
		c.log.Debug("archive query failed", log.String("query", what), log.ErrorField(err))
		return api.Unavailable(what, err)
	}
}

func sessionRow(s *repository.Session) api.SessionRow {
	typ, _ := model.ParseSessionType(s.TypeCode)
	label := s.Label
	if label == "" {
		label = typ.String()
	}
	return api.SessionRow{
		Key:         strconv.FormatInt(s.ID, 10),
		Season:      s.Season,
		EventName:   s.EventName,
		CircuitName: s.CircuitName,
		Label:       label,
		Type:        typ,
		DateStart:   s.DateStart,
	}
}

func parseKey(key string) (int64, bool) {
	id, err := strconv.ParseInt(key, 10, 64)
	return id, err == nil
}

func seconds(secs float64) time.Duration {
	return time.Duration(math.Round(secs * float64(time.Second)))
}

func offset(start time.Time, secs float64) time.Time {
	return start.Add(seconds(secs))
}

func nullable(v *float64) null.Val[float64] {
	if v == nil {
		return null.Val[float64]{}
	}
	return null.From(*v)
}
