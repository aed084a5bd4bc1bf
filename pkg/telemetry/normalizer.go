package telemetry

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/f1-telemetry-lab/log"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/api"
)

var (
	ErrNoValidLap      = errors.New("no valid lap")
	ErrNoTelemetryData = errors.New("no telemetry data")
	ErrUnsupportedMode = errors.New("unsupported mode")
)

type Option func(*Normalizer)

func WithLogger(arg *log.Logger) Option {
	return func(n *Normalizer) {
		n.log = arg
	}
}

func WithTracer(arg trace.Tracer) Option {
	return func(n *Normalizer) {
		n.tracer = arg
	}
}

// Normalizer produces per-driver telemetry tables with a common x axis.
type Normalizer struct {
	client api.Client
	log    *log.Logger
	tracer trace.Tracer
}

func NewNormalizer(client api.Client, opts ...Option) *Normalizer {
	ret := &Normalizer{
		client: client,
		log:    log.Default().Named("telemetry"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.tracer == nil {
		ret.tracer = otel.Tracer("ftl")
	}
	return ret
}

// Normalize loads the telemetry of driver d.
//
// ModeLap restricts the samples to the fastest valid lap and uses the distance
// from the start of that lap as x axis. ModeSession keeps all samples with the
// unix time in seconds as x axis. ModeDefault uses the default of the backend.
//
//nolint:whitespace // editor/linter issue
func (n *Normalizer) Normalize(
	ctx context.Context,
	h model.SessionHandle,
	d model.DriverRef,
	mode model.Mode,
) (*model.NormalizedTelemetryTable, error) {
	if mode == model.ModeDefault || mode == "" {
		mode = n.client.DefaultMode()
	}
	ctx, span := n.tracer.Start(ctx, "Normalize", trace.WithAttributes(
		attribute.String("session", h.Key),
		attribute.String("driver", d.ID),
		attribute.String("mode", string(mode))))
	defer span.End()

	switch mode {
	case model.ModeLap:
		return n.lapRelative(ctx, h, d)
	case model.ModeSession:
		return n.sessionRelative(ctx, h, d)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMode, mode)
	}
}

//nolint:whitespace // editor/linter issue
func (n *Normalizer) lapRelative(
	ctx context.Context,
	h model.SessionHandle,
	d model.DriverRef,
) (*model.NormalizedTelemetryTable, error) {
	lapRows, err := n.client.Laps(ctx, h.Key, d.ID)
	if err != nil {
		if errors.Is(err, api.ErrEmptyResult) {
			return nil, fmt.Errorf("%w for %s in %s", ErrNoValidLap, d, h)
		}
		return nil, err
	}
	laps := make([]model.LapRecord, len(lapRows))
	for i := range lapRows {
		laps[i] = lapRows[i].Record()
	}
	lap, ok := FastestLap(laps)
	if !ok {
		return nil, fmt.Errorf("%w for %s in %s", ErrNoValidLap, d, h)
	}
	n.log.Debug("fastest lap",
		log.String("driver", d.ID),
		log.Int("lap", lap.Number),
		log.Duration("duration", lap.Duration))

	rows, err := n.carData(ctx, h, d)
	if err != nil {
		return nil, err
	}
	window := make([]api.TelemetryRow, 0, len(rows))
	for i := range rows {
		if lap.Contains(rows[i].Date) {
			window = append(window, rows[i])
		}
	}
	if len(window) == 0 {
		return nil, fmt.Errorf("%w for %s in lap %d of %s",
			ErrNoTelemetryData, d, lap.Number, h)
	}
	return &model.NormalizedTelemetryTable{
		Driver:  d,
		Axis:    model.AxisDistance,
		Mode:    model.ModeLap,
		Lap:     &lap,
		Samples: distanceAxis(window),
	}, nil
}

//nolint:whitespace // editor/linter issue
func (n *Normalizer) sessionRelative(
	ctx context.Context,
	h model.SessionHandle,
	d model.DriverRef,
) (*model.NormalizedTelemetryTable, error) {
	rows, err := n.carData(ctx, h, d)
	if err != nil {
		return nil, err
	}
	samples := make([]model.TelemetrySample, len(rows))
	for i := range rows {
		samples[i] = sampleOf(&rows[i])
		samples[i].X = float64(rows[i].Date.UnixNano()) / 1e9
	}
	return &model.NormalizedTelemetryTable{
		Driver:  d,
		Axis:    model.AxisTime,
		Mode:    model.ModeSession,
		Samples: samples,
	}, nil
}

// carData returns a sorted copy of the car data rows of the driver
//
//nolint:whitespace // editor/linter issue
func (n *Normalizer) carData(
	ctx context.Context,
	h model.SessionHandle,
	d model.DriverRef,
) ([]api.TelemetryRow, error) {
	rows, err := n.client.CarData(ctx, h.Key, d.ID)
	if err != nil {
		if errors.Is(err, api.ErrEmptyResult) {
			return nil, fmt.Errorf("%w for %s in %s", ErrNoTelemetryData, d, h)
		}
		return nil, err
	}
	ret := slices.Clone(rows)
	slices.SortStableFunc(ret, func(a, b api.TelemetryRow) int {
		return a.Date.Compare(b.Date)
	})
	return ret, nil
}

// FastestLap returns the valid lap with the minimum duration.
// Ties are resolved to the lowest lap number.
func FastestLap(laps []model.LapRecord) (model.LapRecord, bool) {
	var ret model.LapRecord
	found := false
	for _, l := range laps {
		if !l.Valid {
			continue
		}
		if !found || l.Duration < ret.Duration ||
			(l.Duration == ret.Duration && l.Number < ret.Number) {
			ret = l
			found = true
		}
	}
	return ret, found
}

// distanceAxis uses the distance of the backend if all rows carry a
// non-decreasing value. Otherwise the distance is integrated from the speed (km/h).
func distanceAxis(rows []api.TelemetryRow) []model.TelemetrySample {
	ret := make([]model.TelemetrySample, len(rows))
	if hasDistance(rows) {
		base := rows[0].Distance.MustGet()
		for i := range rows {
			ret[i] = sampleOf(&rows[i])
			ret[i].X = rows[i].Distance.MustGet() - base
		}
		return ret
	}
	x := 0.0
	for i := range rows {
		if i > 0 {
			dt := rows[i].Date.Sub(rows[i-1].Date).Seconds()
			if speed, ok := rows[i].Speed.Get(); ok {
				x += max(0, speed/3.6*dt)
			}
		}
		ret[i] = sampleOf(&rows[i])
		ret[i].X = x
	}
	return ret
}

func hasDistance(rows []api.TelemetryRow) bool {
	prev := 0.0
	for i := range rows {
		v, ok := rows[i].Distance.Get()
		if !ok || (i > 0 && v < prev) {
			return false
		}
		prev = v
	}
	return true
}

func sampleOf(r *api.TelemetryRow) model.TelemetrySample {
	return model.TelemetrySample{
		Timestamp: r.Date,
		Speed:     r.Speed,
		Throttle:  r.Throttle,
		Brake:     r.Brake,
		RPM:       r.RPM,
		Gear:      r.Gear,
	}
}
