// Package chart converts normalized telemetry tables into chart specs.
package chart

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/shopspring/decimal"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
)

var ErrAxisMismatch = errors.New("tables use different axes")

type Point struct {
	X float64           `json:"x"`
	Y null.Val[float64] `json:"y"`
}

type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

type Chart struct {
	Channel model.Channel `json:"channel"`
	Title   string        `json:"title"`
	XTitle  string        `json:"xTitle"`
	YTitle  string        `json:"yTitle"`
	Series  []Series      `json:"series"`
}

var channelTitles = map[model.Channel]string{
	model.ChannelSpeed:    "Speed (km/h)",
	model.ChannelThrottle: "Throttle (%)",
	model.ChannelBrake:    "Brake",
	model.ChannelRPM:      "RPM",
	model.ChannelGear:     "Gear",
}

// ParseChannels accepts channel names, also as comma separated lists
func ParseChannels(args ...string) ([]model.Channel, error) {
	var ret []model.Channel
	for _, arg := range args {
		for _, name := range strings.Split(arg, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			c, err := model.ParseChannel(name)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", model.ErrInvalidQuery, err)
			}
			ret = append(ret, c)
		}
	}
	return ret, nil
}

// SeriesOf extracts the values of channel c. Null values are kept as null points.
func SeriesOf(table *model.NormalizedTelemetryTable, c model.Channel) Series {
	ret := Series{
		Name:   table.Driver.DisplayName(),
		Points: make([]Point, len(table.Samples)),
	}
	for i := range table.Samples {
		ret.Points[i] = Point{X: table.Samples[i].X, Y: table.Samples[i].Value(c)}
	}
	return ret
}

// Build creates one chart per channel containing the series of both drivers.
// Without channels all channels are used.
//
//nolint:whitespace // editor/linter issue
func Build(
	a, b *model.NormalizedTelemetryTable,
	channels ...model.Channel,
) ([]Chart, error) {
	if a.Axis != b.Axis {
		return nil, fmt.Errorf("%w: %s vs %s", ErrAxisMismatch, a.Axis, b.Axis)
	}
	if len(channels) == 0 {
		channels = model.Channels()
	}
	ret := make([]Chart, 0, len(channels))
	for _, c := range channels {
		ret = append(ret, Chart{
			Channel: c,
			Title:   fmt.Sprintf("%s: %s vs %s", c, a.Driver.DisplayName(), b.Driver.DisplayName()),
			XTitle:  AxisTitle(a.Axis),
			YTitle:  channelTitles[c],
			Series:  []Series{SeriesOf(a, c), SeriesOf(b, c)},
		})
	}
	return ret, nil
}

func AxisTitle(axis model.Axis) string {
	switch axis {
	case model.AxisDistance:
		return "Distance (m)"
	case model.AxisTime:
		return "Time (s)"
	}
	return string(axis)
}

var (
	thousand = decimal.NewFromInt(1000)
	sixty    = decimal.NewFromInt(60)
)

// FormatLapTime renders d as m:ss.mmm, rounded to milliseconds
func FormatLapTime(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	secs := decimal.NewFromInt(d.Nanoseconds()).Shift(-9).Round(3)
	minutes := secs.Div(sixty).Floor()
	rest := secs.Sub(minutes.Mul(sixty))
	whole := rest.Floor()
	millis := rest.Sub(whole).Mul(thousand)
	return fmt.Sprintf("%s%d:%02d.%03d", sign, minutes.IntPart(), whole.IntPart(), millis.IntPart())
}

// Stats summarizes the non-null points of a series
type Stats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

func (s Series) Stats() Stats {
	var ret Stats
	sum := 0.0
	for _, p := range s.Points {
		v, ok := p.Y.Get()
		if !ok {
			continue
		}
		if ret.Count == 0 || v < ret.Min {
			ret.Min = v
		}
		if ret.Count == 0 || v > ret.Max {
			ret.Max = v
		}
		sum += v
		ret.Count++
	}
	if ret.Count > 0 {
		ret.Mean = sum / float64(ret.Count)
	}
	return ret
}
