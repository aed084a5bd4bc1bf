package compare

import (
	"time"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/chart"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
)

type LapSummary struct {
	Number   int           `json:"number"`
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
	LapTime  string        `json:"lapTime"`
}

type DriverSummary struct {
	Driver  model.DriverRef `json:"driver"`
	Lap     *LapSummary     `json:"lap,omitempty"`
	Samples int             `json:"samples"`
}

// Report is the presentation of a comparison used by the CLI and the HTTP API
type Report struct {
	Session model.SessionHandle `json:"session"`
	Mode    model.Mode          `json:"mode"`
	Axis    model.Axis          `json:"axis"`
	Drivers []DriverSummary     `json:"drivers"`
	Charts  []chart.Chart       `json:"charts"`
}

// NewReport builds the charts for the channels (all channels if none given).
func NewReport(res *Result, channels ...model.Channel) (*Report, error) {
	charts, err := chart.Build(res.A, res.B, channels...)
	if err != nil {
		return nil, err
	}
	return &Report{
		Session: res.Session,
		Mode:    res.A.Mode,
		Axis:    res.A.Axis,
		Drivers: []DriverSummary{summaryOf(res.A), summaryOf(res.B)},
		Charts:  charts,
	}, nil
}

func summaryOf(t *model.NormalizedTelemetryTable) DriverSummary {
	ret := DriverSummary{Driver: t.Driver, Samples: len(t.Samples)}
	if t.Lap != nil {
		ret.Lap = &LapSummary{
			Number:   t.Lap.Number,
			Start:    t.Lap.Start,
			Duration: t.Lap.Duration,
			LapTime:  chart.FormatLapTime(t.Lap.Duration),
		}
	}
	return ret
}
