//nolint:whitespace //can't make both the linter and editor happy :(
package session

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/repository"
)

// LoadBySeason returns the sessions of a season ordered by start time.
func LoadBySeason(
	ctx context.Context,
	conn repository.Querier,
	season int,
) ([]*repository.Session, error) {
	return load(ctx, conn,
		fmt.Sprintf("%s where season=$1 order by date_start, id", selector), season)
}

func LoadByID(
	ctx context.Context,
	conn repository.Querier,
	id int64,
) (*repository.Session, error) {
	ret, err := load(ctx, conn, fmt.Sprintf("%s where id=$1", selector), id)
	if err != nil {
		return nil, err
	}
	if len(ret) == 0 {
		return nil, repository.ErrNoRows
	}
	return ret[0], nil
}

func load(
	ctx context.Context,
	conn repository.Querier,
	query string,
	args ...any,
) ([]*repository.Session, error) {
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, repository.QueryError(err)
	}
	defer rows.Close()
	ret := make([]*repository.Session, 0)
	for rows.Next() {
		var item repository.Session
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

// little helper
const selector = string(`select id,season,event_name,circuit_name,type_code,label,date_start
from session`)

func scan(e *repository.Session, row pgx.Row) error {
	if err := row.Scan(&e.ID, &e.Season, &e.EventName, &e.CircuitName,
		&e.TypeCode, &e.Label, &e.DateStart); err != nil {
		return err
	}
	e.DateStart = e.DateStart.UTC()
	return nil
}
