package model

import "time"

// LapRecord is the summary of a single lap of a driver.
// Only valid laps take part in the fastest lap selection.
type LapRecord struct {
	Number   int           `json:"number"`
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
	Valid    bool          `json:"valid"`
}

func (l *LapRecord) End() time.Time {
	return l.Start.Add(l.Duration)
}

// Contains reports whether ts lies within [Start, Start+Duration)
func (l *LapRecord) Contains(ts time.Time) bool {
	return !ts.Before(l.Start) && ts.Before(l.End())
}
