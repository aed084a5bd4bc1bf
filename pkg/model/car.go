package model

import (
	"fmt"
	"time"

	"github.com/aarondl/opt/null"
)

// DriverRef identifies a driver within a session.
// ID is the backend identifier (driver number or three letter code).
type DriverRef struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	FullName string `json:"fullName,omitempty"`
	Team     string `json:"team,omitempty"`
}

func (d DriverRef) String() string {
	if d.Label == "" || d.Label == d.ID {
		return d.ID
	}
	return fmt.Sprintf("%s (%s)", d.Label, d.ID)
}

// DisplayName is used for chart legends
func (d DriverRef) DisplayName() string {
	if d.Label != "" {
		return d.Label
	}
	return d.ID
}

type Axis string

const (
	AxisDistance Axis = "distance" // metres from the first sample of the lap
	AxisTime     Axis = "time"     // seconds since unix epoch
)

type Mode string

const (
	ModeDefault Mode = "default" // use the default mode of the backend
	ModeLap     Mode = "lap"
	ModeSession Mode = "session"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeDefault:
		return ModeDefault, nil
	case ModeLap, "fastest", "lap-relative":
		return ModeLap, nil
	case ModeSession, "session-relative":
		return ModeSession, nil
	}
	return "", fmt.Errorf("unknown mode %q (use lap, session or default)", s)
}

func (m Mode) Axis() Axis {
	if m == ModeLap {
		return AxisDistance
	}
	return AxisTime
}

type Channel string

const (
	ChannelSpeed    Channel = "speed"
	ChannelThrottle Channel = "throttle"
	ChannelBrake    Channel = "brake"
	ChannelRPM      Channel = "rpm"
	ChannelGear     Channel = "gear"
)

func Channels() []Channel {
	return []Channel{ChannelSpeed, ChannelThrottle, ChannelBrake, ChannelRPM, ChannelGear}
}

func ParseChannel(s string) (Channel, error) {
	for _, c := range Channels() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown channel %q", s)
}

// TelemetrySample is one row of a normalized table.
// Channels not delivered by the backend are null, never zero.
type TelemetrySample struct {
	X         float64           `json:"x"`
	Timestamp time.Time         `json:"timestamp"`
	Speed     null.Val[float64] `json:"speed"`
	Throttle  null.Val[float64] `json:"throttle"`
	Brake     null.Val[float64] `json:"brake"`
	RPM       null.Val[float64] `json:"rpm"`
	Gear      null.Val[float64] `json:"gear"`
}

func (s *TelemetrySample) Value(c Channel) null.Val[float64] {
	switch c {
	case ChannelSpeed:
		return s.Speed
	case ChannelThrottle:
		return s.Throttle
	case ChannelBrake:
		return s.Brake
	case ChannelRPM:
		return s.RPM
	case ChannelGear:
		return s.Gear
	}
	return null.Val[float64]{}
}

type NormalizedTelemetryTable struct {
	Driver  DriverRef         `json:"driver"`
	Axis    Axis              `json:"axis"`
	Mode    Mode              `json:"mode"`
	Lap     *LapRecord        `json:"lap,omitempty"`
	Samples []TelemetrySample `json:"samples"`
}
