package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/mpapenbr/f1-telemetry-lab/log"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/api"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrAmbiguousQuery  = errors.New("ambiguous session query")
	ErrSessionEmpty    = errors.New("session has no drivers")
	ErrNoSessions      = errors.New("no sessions available")
)

type Option func(*Resolver)

func WithLogger(arg *log.Logger) Option {
	return func(r *Resolver) {
		r.log = arg
	}
}

// Resolver turns session queries into handles and lists the drivers of a session.
type Resolver struct {
	client api.Client
	log    *log.Logger
}

func NewResolver(client api.Client, opts ...Option) *Resolver {
	ret := &Resolver{
		client: client,
		log:    log.Default().Named("session"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Resolve finds the single session addressed by q.
// Event names are matched exactly (case-insensitive) against event, circuit,
// location and country of the sessions of the season.
//
//nolint:whitespace // editor/linter issue
func (r *Resolver) Resolve(
	ctx context.Context,
	q model.SessionQuery,
) (model.SessionHandle, error) {
	if err := q.Validate(); err != nil {
		return model.SessionHandle{}, err
	}
	rows, err := r.client.Sessions(ctx, q.Season())
	if err != nil {
		if errors.Is(err, api.ErrEmptyResult) {
			return model.SessionHandle{}, fmt.Errorf("%w: %s", ErrSessionNotFound, q)
		}
		return model.SessionHandle{}, err
	}

	var candidates []api.SessionRow
	if q.ByKey() {
		candidates = lo.Filter(rows, func(item api.SessionRow, _ int) bool {
			return item.Key == q.SessionKey()
		})
	} else {
		candidates = lo.Filter(rows, func(item api.SessionRow, _ int) bool {
			return item.Type == q.Type() && matchesEvent(&item, q.Event())
		})
	}
	candidates = lo.UniqBy(candidates, func(item api.SessionRow) string { return item.Key })

	switch len(candidates) {
	case 0:
		return model.SessionHandle{}, fmt.Errorf("%w: %s", ErrSessionNotFound, q)
	case 1:
		ret := candidates[0].Handle(r.client.Name())
		r.log.Debug("resolved session",
			log.String("query", q.String()),
			log.String("key", ret.Key))
		return ret, nil
	default:
		names := lo.Map(candidates, func(item api.SessionRow, _ int) string {
			return fmt.Sprintf("%s (%s)", item.EventName, item.Key)
		})
		return model.SessionHandle{}, fmt.Errorf("%w: %s matches %s",
			ErrAmbiguousQuery, q, strings.Join(names, ", "))
	}
}

// ListDrivers returns the drivers of the session, unique by ID.
// Numeric IDs are sorted numerically, others lexically.
//
//nolint:whitespace // editor/linter issue
func (r *Resolver) ListDrivers(
	ctx context.Context,
	h model.SessionHandle,
) ([]model.DriverRef, error) {
	rows, err := r.client.Drivers(ctx, h.Key)
	if err != nil {
		if errors.Is(err, api.ErrEmptyResult) {
			return nil, fmt.Errorf("%w: %s", ErrSessionEmpty, h)
		}
		return nil, err
	}
	ret := lo.Map(
		lo.UniqBy(rows, func(item api.DriverRow) string { return item.ID }),
		func(item api.DriverRow, _ int) model.DriverRef { return item.Ref() })
	if len(ret) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSessionEmpty, h)
	}
	slices.SortFunc(ret, func(a, b model.DriverRef) int { return compareIDs(a.ID, b.ID) })
	return ret, nil
}

// ListSessions returns the sessions of a year ordered by start time.
//
//nolint:whitespace // editor/linter issue
func (r *Resolver) ListSessions(
	ctx context.Context,
	year int,
) ([]model.SessionHandle, error) {
	rows, err := r.client.Sessions(ctx, year)
	if err != nil {
		if errors.Is(err, api.ErrEmptyResult) {
			return nil, fmt.Errorf("%w for %d", ErrNoSessions, year)
		}
		return nil, err
	}
	ret := lo.Map(rows, func(item api.SessionRow, _ int) model.SessionHandle {
		return item.Handle(r.client.Name())
	})
	if len(ret) == 0 {
		return nil, fmt.Errorf("%w for %d", ErrNoSessions, year)
	}
	slices.SortStableFunc(ret, func(a, b model.SessionHandle) int {
		return a.DateStart.Compare(b.DateStart)
	})
	return ret, nil
}

func matchesEvent(row *api.SessionRow, event string) bool {
	want := strings.TrimSpace(event)
	for _, name := range []string{row.EventName, row.CircuitName, row.Location, row.CountryName} {
		if name != "" && strings.EqualFold(strings.TrimSpace(name), want) {
			return true
		}
	}
	return false
}

func compareIDs(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na - nb
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}
