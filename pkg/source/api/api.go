package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aarondl/opt/null"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
)

var (
	// network errors, timeouts, unavailable servers or databases
	ErrRemoteUnavailable = errors.New("remote data source unavailable")
	// malformed payload, non tabular data or rows missing required fields
	ErrBadResponse = errors.New("bad response from remote data source")
	// the query returned zero rows. callers decide if this is fatal
	ErrEmptyResult = errors.New("empty result")
)

// DefaultTimeout is applied to each call if the backend is not configured otherwise
const DefaultTimeout = 10 * time.Second

// Client issues the read-only queries against a telemetry backend.
// All methods return ErrEmptyResult (wrapped) if the backend has no rows.
type Client interface {
	// Name identifies the backend (used in session handles and cache keys)
	Name() string
	DefaultMode() model.Mode
	Sessions(ctx context.Context, year int) ([]SessionRow, error)
	Drivers(ctx context.Context, sessionKey string) ([]DriverRow, error)
	CarData(ctx context.Context, sessionKey, driverID string) ([]TelemetryRow, error)
	Laps(ctx context.Context, sessionKey, driverID string) ([]LapRow, error)
}

type SessionRow struct {
	Key         string            `json:"key"`
	Season      int               `json:"season"`
	EventName   string            `json:"eventName"`
	CircuitName string            `json:"circuitName"`
	Location    string            `json:"location"`
	CountryName string            `json:"countryName"`
	Label       string            `json:"label"`
	Type        model.SessionType `json:"type"`
	DateStart   time.Time         `json:"dateStart"`
}

type DriverRow struct {
	ID       string `json:"id"`
	Acronym  string `json:"acronym"`
	FullName string `json:"fullName"`
	Team     string `json:"team"`
}

type LapRow struct {
	Number   int                     `json:"number"`
	Start    null.Val[time.Time]     `json:"start"`
	Duration null.Val[time.Duration] `json:"duration"`
	PitOut   bool                    `json:"pitOut"`
	Deleted  bool                    `json:"deleted"`
}

// TelemetryRow carries the channel values as delivered by the backend.
// Distance is only set if the backend provides a distance channel.
type TelemetryRow struct {
	Date     time.Time         `json:"date"`
	Distance null.Val[float64] `json:"distance"`
	Speed    null.Val[float64] `json:"speed"`
	Throttle null.Val[float64] `json:"throttle"`
	Brake    null.Val[float64] `json:"brake"`
	RPM      null.Val[float64] `json:"rpm"`
	Gear     null.Val[float64] `json:"gear"`
}

// Record converts the row into a LapRecord.
// A lap is valid if start and a positive duration are known and it was neither
// an out-lap from the pits nor deleted by the stewards.
func (r *LapRow) Record() model.LapRecord {
	ret := model.LapRecord{Number: r.Number}
	start, hasStart := r.Start.Get()
	dur, hasDur := r.Duration.Get()
	if hasStart {
		ret.Start = start
	}
	if hasDur {
		ret.Duration = dur
	}
	ret.Valid = hasStart && hasDur && dur > 0 && !r.PitOut && !r.Deleted
	return ret
}

func (r *SessionRow) Handle(backend string) model.SessionHandle {
	return model.SessionHandle{
		Backend:     backend,
		Key:         r.Key,
		Season:      r.Season,
		EventName:   r.EventName,
		CircuitName: r.CircuitName,
		Label:       r.Label,
		Type:        r.Type,
		DateStart:   r.DateStart,
	}
}

func (r *DriverRow) Ref() model.DriverRef {
	label := r.Acronym
	if label == "" {
		label = r.ID
	}
	return model.DriverRef{ID: r.ID, Label: label, FullName: r.FullName, Team: r.Team}
}

// Unavailable wraps err as ErrRemoteUnavailable
func Unavailable(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrRemoteUnavailable, what, err)
}

func BadResponse(what string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrBadResponse, what, fmt.Sprintf(format, args...))
}

func Empty(what string) error {
	return fmt.Errorf("%w: %s", ErrEmptyResult, what)
}
