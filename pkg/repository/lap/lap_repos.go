//nolint:whitespace //can't make both the linter and editor happy :(
package lap

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/repository"
)

// LoadDrivers returns the distinct driver codes which have laps in the session.
func LoadDrivers(
	ctx context.Context,
	conn repository.Querier,
	sessionID int64,
) ([]string, error) {
	rows, err := conn.Query(ctx,
		"select distinct driver from lap where session_id=$1 order by driver",
		sessionID)
	if err != nil {
		return nil, repository.QueryError(err)
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
	if err := rows.Err(); err != nil {
		return nil, repository.QueryError(err)
	}
	return ret, nil
}

// LoadByDriver returns the laps of a driver ordered by lap number
func LoadByDriver(
	ctx context.Context,
	conn repository.Querier,
	sessionID int64,
	driver string,
) ([]*repository.Lap, error) {
	rows, err := conn.Query(ctx,
		selector+" where session_id=$1 and driver=$2 order by lap_number",
		sessionID, driver)
	if err != nil {
		return nil, repository.QueryError(err)
	}
	defer rows.Close()
	ret := make([]*repository.Lap, 0)
	for rows.Next() {
		var item repository.Lap
		if err := scan(&item, rows); err != nil {
			return nil, repository.SchemaError(err)
		}
		ret = append(ret, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.QueryError(err)
	}
	return ret, nil
}

const selector = string(`select driver,lap_number,lap_start,lap_time,pit_out,deleted from lap`)

func scan(e *repository.Lap, row pgx.Row) error {
	return row.Scan(&e.Driver, &e.LapNumber, &e.LapStart, &e.LapTime,
		&e.PitOut, &e.Deleted)
}
