package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type SessionType int

const (
	STUnknown       SessionType = 0 // sprint, sprint qualifying, test days, ...
	STRace          SessionType = 1
	STQualifying    SessionType = 2
	STFreePractice1 SessionType = 3
	STFreePractice2 SessionType = 4
	STFreePractice3 SessionType = 5
)

var ErrUnknownSessionType = errors.New("unknown session type")

var sessionTypeCodes = map[SessionType]string{
	STRace:          "R",
	STQualifying:    "Q",
	STFreePractice1: "FP1",
	STFreePractice2: "FP2",
	STFreePractice3: "FP3",
}

var sessionTypeLabels = map[SessionType]string{
	STRace:          "Race",
	STQualifying:    "Qualifying",
	STFreePractice1: "Practice 1",
	STFreePractice2: "Practice 2",
	STFreePractice3: "Practice 3",
}

// SessionTypes returns the selectable session types in display order.
func SessionTypes() []SessionType {
	return []SessionType{
		STRace, STQualifying, STFreePractice1, STFreePractice2, STFreePractice3,
	}
}

// Code returns the short code (R, Q, FP1, ...)
func (t SessionType) Code() string {
	if c, ok := sessionTypeCodes[t]; ok {
		return c
	}
	return "?"
}

func (t SessionType) String() string {
	if l, ok := sessionTypeLabels[t]; ok {
		return l
	}
	return "Unknown"
}

// ParseSessionType accepts short codes (R, Q, FP1) as well as the long labels
// used by the backends (Race, Qualifying, Practice 1, Free Practice 1).
func ParseSessionType(s string) (SessionType, error) {
	norm := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	switch norm {
	case "R", "RACE":
		return STRace, nil
	case "Q", "QUALIFYING":
		return STQualifying, nil
	case "FP1", "PRACTICE 1", "FREE PRACTICE 1":
		return STFreePractice1, nil
	case "FP2", "PRACTICE 2", "FREE PRACTICE 2":
		return STFreePractice2, nil
	case "FP3", "PRACTICE 3", "FREE PRACTICE 3":
		return STFreePractice3, nil
	}
	return STUnknown, fmt.Errorf("%w: %q", ErrUnknownSessionType, s)
}

func (t SessionType) MarshalText() ([]byte, error) {
	return []byte(t.Code()), nil
}

func (t *SessionType) UnmarshalText(text []byte) error {
	if s := string(text); s == "" || s == "?" {
		*t = STUnknown
		return nil
	}
	v, err := ParseSessionType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

var ErrInvalidQuery = errors.New("invalid session query")

// SessionQuery addresses a session either by event name or by backend session key.
// Use NewEventQuery or NewKeyQuery to create one.
type SessionQuery struct {
	season     int
	event      string
	sessionKey string
	typ        SessionType
}

func NewEventQuery(season int, event string, typ SessionType) SessionQuery {
	return SessionQuery{season: season, event: strings.TrimSpace(event), typ: typ}
}

func NewKeyQuery(season int, sessionKey string) SessionQuery {
	return SessionQuery{season: season, sessionKey: strings.TrimSpace(sessionKey)}
}

func (q SessionQuery) Season() int { return q.season }
func (q SessionQuery) Event() string { return q.event }
func (q SessionQuery) SessionKey() string { return q.sessionKey }
func (q SessionQuery) Type() SessionType { return q.typ }
func (q SessionQuery) ByKey() bool { return q.sessionKey != "" }

func (q SessionQuery) Validate() error {
	if q.season <= 0 {
		return fmt.Errorf("%w: season must be positive, got %d", ErrInvalidQuery, q.season)
	}
	switch {
	case q.event != "" && q.sessionKey != "":
		return fmt.Errorf("%w: use either event or session key", ErrInvalidQuery)
	case q.event == "" && q.sessionKey == "":
		return fmt.Errorf("%w: event or session key required", ErrInvalidQuery)
	case q.event != "" && q.typ == STUnknown:
		return fmt.Errorf("%w: session type required", ErrInvalidQuery)
	}
	return nil
}

func (q SessionQuery) String() string {
	if q.ByKey() {
		return fmt.Sprintf("%d key=%s", q.season, q.sessionKey)
	}
	return fmt.Sprintf("%d %s %s", q.season, q.event, q.typ.Code())
}

// SessionHandle is a resolved session. Key is the backend specific identifier
// used by all subsequent queries.
type SessionHandle struct {
	Backend     string      `json:"backend"`
	Key         string      `json:"key"`
	Season      int         `json:"season"`
	EventName   string      `json:"eventName"`
	CircuitName string      `json:"circuitName"`
	Label       string      `json:"label"`
	Type        SessionType `json:"type"`
	DateStart   time.Time   `json:"dateStart"`
}

func (h SessionHandle) String() string {
	name := h.EventName
	if name == "" {
		name = h.CircuitName
	}
	return fmt.Sprintf("%d %s %s", h.Season, name, h.Label)
}
