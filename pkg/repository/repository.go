package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNoRows = errors.New("no rows in result set")
	// the stored data does not match the expected archive schema
	ErrSchema = errors.New("archive schema mismatch")
)

// Session is a row of the session table.
// TypeCode is one of R, Q, FP1, FP2, FP3 or any other code for sessions
// like sprints.
type Session struct {
	ID          int64
	Season      int
	EventName   string
	CircuitName string
	TypeCode    string
	Label       string
	DateStart   time.Time
}

// Lap is a row of the lap table. LapStart is given in seconds since session start,
// LapTime in seconds.
type Lap struct {
	Driver    string
	LapNumber int
	LapStart  *float64
	LapTime   *float64
	PitOut    bool
	Deleted   bool
}

// CarData is a row of the car_data table. SessionTime is given in seconds since
// session start. Channels are nil if not recorded.
type CarData struct {
	SessionTime float64
	Distance    *float64
	Speed       *float64
	Throttle    *float64
	Brake       *float64
	RPM         *float64
	Gear        *float64
}

// SchemaError marks err as caused by unexpected stored data (scan errors).
func SchemaError(err error) error {
	return fmt.Errorf("%w: %w", ErrSchema, err)
}

// QueryError classifies errors returned by query execution. Errors caused by
// missing tables or columns (class 42 of the postgres error codes) are schema errors.
func QueryError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "42") {
		return SchemaError(err)
	}
	return err
}
