// Package compare runs the full load chain of a two driver comparison.
package compare

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/f1-telemetry-lab/log"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/session"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/api"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/telemetry"
)

var ErrUnknownDriver = errors.New("unknown driver")

type Option func(*Service)

func WithLogger(arg *log.Logger) Option {
	return func(s *Service) {
		s.log = arg
	}
}

func WithTracer(arg trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = arg
	}
}

type Request struct {
	Query   model.SessionQuery
	DriverA string // driver id or label
	DriverB string
	Mode    model.Mode
}

type Result struct {
	Session model.SessionHandle             `json:"session"`
	A       *model.NormalizedTelemetryTable `json:"a"`
	B       *model.NormalizedTelemetryTable `json:"b"`
}

type Service struct {
	client     api.Client
	resolver   *session.Resolver
	normalizer *telemetry.Normalizer
	log        *log.Logger
	tracer     trace.Tracer
}

func NewService(client api.Client, opts ...Option) *Service {
	ret := &Service{
		client: client,
		log:    log.Default().Named("compare"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.tracer == nil {
		ret.tracer = otel.Tracer("ftl")
	}
	ret.resolver = session.NewResolver(client)
	ret.normalizer = telemetry.NewNormalizer(client, telemetry.WithTracer(ret.tracer))
	return ret
}

// DefaultMode is the mode used for ModeDefault requests
func (s *Service) DefaultMode() model.Mode {
	return s.client.DefaultMode()
}

func (s *Service) Sessions(ctx context.Context, year int) ([]model.SessionHandle, error) {
	return s.resolver.ListSessions(ctx, year)
}

func (s *Service) Session(ctx context.Context, q model.SessionQuery) (model.SessionHandle, error) {
	return s.resolver.Resolve(ctx, q)
}

//nolint:whitespace // editor/linter issue
func (s *Service) Drivers(
	ctx context.Context,
	q model.SessionQuery,
) (model.SessionHandle, []model.DriverRef, error) {
	h, err := s.resolver.Resolve(ctx, q)
	if err != nil {
		return h, nil, err
	}
	drivers, err := s.resolver.ListDrivers(ctx, h)
	if err != nil {
		return h, nil, err
	}
	return h, drivers, nil
}

// Compare resolves the session and normalizes the telemetry of both drivers
// with the same mode. The first failure aborts the whole comparison.
func (s *Service) Compare(ctx context.Context, req Request) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "Compare", trace.WithAttributes(
		attribute.String("query", req.Query.String()),
		attribute.String("driverA", req.DriverA),
		attribute.String("driverB", req.DriverB)))
	defer span.End()

	mode := req.Mode
	if mode == model.ModeDefault || mode == "" {
		mode = s.client.DefaultMode()
	}
	h, drivers, err := s.Drivers(ctx, req.Query)
	if err != nil {
		return nil, err
	}
	a, err := FindDriver(drivers, req.DriverA)
	if err != nil {
		return nil, fmt.Errorf("%w in %s", err, h)
	}
	b, err := FindDriver(drivers, req.DriverB)
	if err != nil {
		return nil, fmt.Errorf("%w in %s", err, h)
	}
	s.log.Debug("comparing drivers",
		log.String("session", h.String()),
		log.String("a", a.String()),
		log.String("b", b.String()),
		log.String("mode", string(mode)))

	ret := &Result{Session: h}
	if ret.A, err = s.normalizer.Normalize(ctx, h, a, mode); err != nil {
		return nil, err
	}
	if ret.B, err = s.normalizer.Normalize(ctx, h, b, mode); err != nil {
		return nil, err
	}
	return ret, nil
}

// FindDriver looks up name by backend id first and by label (case-insensitive) second.
func FindDriver(drivers []model.DriverRef, name string) (model.DriverRef, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.DriverRef{}, fmt.Errorf("%w: no driver given", ErrUnknownDriver)
	}
	for _, d := range drivers {
		if d.ID == name {
			return d, nil
		}
	}
	for _, d := range drivers {
		if strings.EqualFold(d.Label, name) {
			return d, nil
		}
	}
	return model.DriverRef{}, fmt.Errorf("%w: %q", ErrUnknownDriver, name)
}
