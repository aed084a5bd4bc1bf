//nolint:whitespace //can't make both the linter and editor happy :(
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/repository"
)

// Store reads the archive tables of a local sqlite file.
// Timestamps are stored as RFC3339 text.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Sessions(ctx context.Context, season int) ([]*repository.Session, error) {
	return s.loadSessions(ctx,
		sessionSelector+" where season=? order by date_start, id", season)
}

func (s *Store) Session(ctx context.Context, id int64) (*repository.Session, error) {
	ret, err := s.loadSessions(ctx, sessionSelector+" where id=?", id)
	if err != nil {
		return nil, err
	}
	if len(ret) == 0 {
		return nil, repository.ErrNoRows
	}
	return ret[0], nil
}

func (s *Store) Drivers(ctx context.Context, sessionID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"select distinct driver from lap where session_id=? order by driver", sessionID)
	if err != nil {
		return nil, queryError(err)
	}
	defer rows.Close()
	ret := make([]string, 0)
	for rows.Next() {
		var driver string
		if err := rows.Scan(&driver); err != nil {
			return nil, repository.SchemaError(err)
		}
		ret = append(ret, driver)
	}
	return ret, queryError(rows.Err())
}

func (s *Store) Laps(
	ctx context.Context,
	sessionID int64,
	driver string,
) ([]*repository.Lap, error) {
	rows, err := s.db.QueryContext(ctx,
		lapSelector+" where session_id=? and driver=? order by lap_number",
		sessionID, driver)
	if err != nil {
		return nil, queryError(err)
	}
	defer rows.Close()
	ret := make([]*repository.Lap, 0)
	for rows.Next() {
		var e repository.Lap
		if err := rows.Scan(&e.Driver, &e.LapNumber, &e.LapStart, &e.LapTime,
			&e.PitOut, &e.Deleted); err != nil {
			return nil, repository.SchemaError(err)
		}
		ret = append(ret, &e)
	}
	return ret, queryError(rows.Err())
}

func (s *Store) CarData(
	ctx context.Context,
	sessionID int64,
	driver string,
) ([]*repository.CarData, error) {
	rows, err := s.db.QueryContext(ctx,
		carDataSelector+" where session_id=? and driver=? order by session_time",
		sessionID, driver)
	if err != nil {
		return nil, queryError(err)
	}
	defer rows.Close()
	ret := make([]*repository.CarData, 0)
	for rows.Next() {
		var e repository.CarData
		if err := rows.Scan(&e.SessionTime, &e.Distance, &e.Speed, &e.Throttle,
			&e.Brake, &e.RPM, &e.Gear); err != nil {
			return nil, repository.SchemaError(err)
		}
		ret = append(ret, &e)
	}
	return ret, queryError(rows.Err())
}

func (s *Store) loadSessions(
	ctx context.Context,
	query string,
	args ...any,
) ([]*repository.Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryError(err)
	}
	defer rows.Close()
	ret := make([]*repository.Session, 0)
	for rows.Next() {
		var e repository.Session
		var start string
		if err := rows.Scan(&e.ID, &e.Season, &e.EventName, &e.CircuitName,
			&e.TypeCode, &e.Label, &start); err != nil {
			return nil, repository.SchemaError(err)
		}
		if e.DateStart, err = parseTime(start); err != nil {
			return nil, repository.SchemaError(err)
		}
		ret = append(ret, &e)
	}
	return ret, queryError(rows.Err())
}

const (
	sessionSelector = `select id,season,event_name,circuit_name,type_code,label,date_start
from session`
	lapSelector     = `select driver,lap_number,lap_start,lap_time,pit_out,deleted from lap`
	carDataSelector = `select session_time,distance,speed,throttle,brake,rpm,gear
from car_data`
)

// FormatTime renders t the way date_start values are stored
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date_start %q", s)
}

// queryError maps missing tables or columns ("no such table") to schema errors.
func queryError(err error) error {
	if err == nil {
		return nil
	}
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrError {
		return repository.SchemaError(err)
	}
	return err
}
