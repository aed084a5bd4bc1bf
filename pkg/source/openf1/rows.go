package openf1

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/ohler55/ojg/oj"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/api"
)

type (
	rawRow = map[string]any

	schema[T any] struct {
		endpoint string
		required []string
		convert  func(r rawRow) (T, error)
	}
)

var sessionSchema = schema[api.SessionRow]{
	endpoint: "sessions",
	required: []string{"session_key", "session_name", "date_start"},
	convert: func(r rawRow) (api.SessionRow, error) {
		key, err := keyString(r, "session_key")
		if err != nil {
			return api.SessionRow{}, err
		}
		start, err := timestamp(r, "date_start")
		if err != nil {
			return api.SessionRow{}, err
		}
		ret := api.SessionRow{
			Key:         key,
			EventName:   text(r, "meeting_name"),
			CircuitName: text(r, "circuit_short_name"),
			Location:    text(r, "location"),
			CountryName: text(r, "country_name"),
			Label:       text(r, "session_name"),
			DateStart:   start.MustGet(),
		}
		// sprints and other sessions are kept as unknown
		ret.Type, _ = model.ParseSessionType(ret.Label)
		ret.Season = ret.DateStart.Year()
		if year, err := number(r, "year"); err == nil && year.IsValue() {
			ret.Season = int(year.MustGet())
		}
		return ret, nil
	},
}

var driverSchema = schema[api.DriverRow]{
	endpoint: "drivers",
	required: []string{"driver_number"},
	convert: func(r rawRow) (api.DriverRow, error) {
		id, err := keyString(r, "driver_number")
		if err != nil {
			return api.DriverRow{}, err
		}
		return api.DriverRow{
			ID:       id,
			Acronym:  text(r, "name_acronym"),
			FullName: text(r, "full_name"),
			Team:     text(r, "team_name"),
		}, nil
	},
}

var telemetrySchema = schema[api.TelemetryRow]{
	endpoint: "car_data",
	required: []string{"date"},
	convert: func(r rawRow) (ret api.TelemetryRow, err error) {
		date, err := timestamp(r, "date")
		if err != nil {
			return ret, err
		}
		ret.Date = date.MustGet()
		if ret.Speed, err = number(r, "speed"); err != nil {
			return ret, err
		}
		if ret.Throttle, err = number(r, "throttle"); err != nil {
			return ret, err
		}
		if ret.Brake, err = number(r, "brake"); err != nil {
			return ret, err
		}
		if ret.RPM, err = number(r, "rpm"); err != nil {
			return ret, err
		}
		gearKey := "n_gear"
		if _, ok := r[gearKey]; !ok {
			gearKey = "gear"
		}
		if ret.Gear, err = number(r, gearKey); err != nil {
			return ret, err
		}
		return ret, nil
	},
}

var lapSchema = schema[api.LapRow]{
	endpoint: "laps",
	required: []string{"lap_number"},
	convert: func(r rawRow) (ret api.LapRow, err error) {
		lapNum, err := number(r, "lap_number")
		if err != nil {
			return ret, err
		}
		ret.Number = int(lapNum.MustGet())
		if ret.Start, err = timestamp(r, "date_start"); err != nil {
			return ret, err
		}
		dur, err := number(r, "lap_duration")
		if err != nil {
			return ret, err
		}
		if secs, ok := dur.Get(); ok {
			ret.Duration = null.From(time.Duration(math.Round(secs * float64(time.Second))))
		}
		if ret.PitOut, err = boolean(r, "is_pit_out_lap"); err != nil {
			return ret, err
		}
		return ret, nil
	},
}

// decodeRows checks the payload is tabular (an array of objects), that every row
// carries the required fields and converts the rows into their typed schema.
func decodeRows[T any](body []byte, s schema[T]) ([]T, error) {
	data, err := oj.Parse(body)
	if err != nil {
		return nil, api.BadResponse(s.endpoint, "invalid json: %v", err)
	}
	list, ok := data.([]any)
	if !ok {
		return nil, api.BadResponse(s.endpoint, "expected array, got %T", data)
	}
	if len(list) == 0 {
		return nil, api.Empty(s.endpoint)
	}
	ret := make([]T, 0, len(list))
	for i, item := range list {
		r, ok := item.(rawRow)
		if !ok {
			return nil, api.BadResponse(s.endpoint, "row %d: expected object, got %T", i, item)
		}
		for _, field := range s.required {
			if v, ok := r[field]; !ok || v == nil {
				return nil, api.BadResponse(s.endpoint, "row %d: missing field %s", i, field)
			}
		}
		row, err := s.convert(r)
		if err != nil {
			return nil, api.BadResponse(s.endpoint, "row %d: %v", i, err)
		}
		ret = append(ret, row)
	}
	return ret, nil
}

func text(r rawRow, key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

const maxExactInt = 1 << 53

func keyString(r rawRow, key string) (string, error) {
	switch v := r[key].(type) {
	case string:
		return v, nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		// larger values are not exact in a json number
		if v == math.Trunc(v) && math.Abs(v) <= maxExactInt {
			return strconv.FormatInt(int64(v), 10), nil
		}
	}
	return "", fmt.Errorf("field %s: invalid key %v", key, r[key])
}

func number(r rawRow, key string) (null.Val[float64], error) {
	switch v := r[key].(type) {
	case nil:
		return null.Val[float64]{}, nil
	case int64:
		return null.From(float64(v)), nil
	case float64:
		return null.From(v), nil
	}
	return null.Val[float64]{}, fmt.Errorf("field %s: expected number, got %T", key, r[key])
}

func boolean(r rawRow, key string) (bool, error) {
	switch v := r[key].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	}
	return false, fmt.Errorf("field %s: expected bool, got %T", key, r[key])
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// timestamp parses the ISO timestamps of the API. Values without zone are UTC.
func timestamp(r rawRow, key string) (null.Val[time.Time], error) {
	switch v := r[key].(type) {
	case nil:
		return null.Val[time.Time]{}, nil
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return null.From(t.UTC()), nil
			}
		}
		return null.Val[time.Time]{}, fmt.Errorf("field %s: invalid timestamp %q", key, v)
	}
	return null.Val[time.Time]{}, fmt.Errorf("field %s: expected string, got %T", key, r[key])
}
