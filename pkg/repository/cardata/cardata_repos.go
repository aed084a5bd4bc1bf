//nolint:whitespace //can't make both the linter and editor happy :(
package cardata

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/repository"
)

// LoadByDriver returns the car data of a driver ordered by session time.
func LoadByDriver(
	ctx context.Context,
	conn repository.Querier,
	sessionID int64,
	driver string,
) ([]*repository.CarData, error) {
	rows, err := conn.Query(ctx,
		selector+" where session_id=$1 and driver=$2 order by session_time",
		sessionID, driver)
	if err != nil {
		return nil, repository.QueryError(err)
	}
	defer rows.Close()
	ret := make([]*repository.CarData, 0)
	for rows.Next() {
		var item repository.CarData
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

const selector = string(`select session_time,distance,speed,throttle,brake,rpm,gear
from car_data`)

func scan(e *repository.CarData, row pgx.Row) error {
	return row.Scan(&e.SessionTime, &e.Distance, &e.Speed, &e.Throttle,
		&e.Brake, &e.RPM, &e.Gear)
}
