//nolint:whitespace //can't make both the linter and editor happy :(
package archive

import (
	"context"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/repository"
	cardatarepos "github.com/mpapenbr/f1-telemetry-lab/pkg/repository/cardata"
	laprepos "github.com/mpapenbr/f1-telemetry-lab/pkg/repository/lap"
	sessionrepos "github.com/mpapenbr/f1-telemetry-lab/pkg/repository/session"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/repository/sqlite"
)

// Store provides read access to the archive tables.
// Session returns repository.ErrNoRows if there is no session with that id.
type Store interface {
	Sessions(ctx context.Context, season int) ([]*repository.Session, error)
	Session(ctx context.Context, id int64) (*repository.Session, error)
	Drivers(ctx context.Context, sessionID int64) ([]string, error)
	Laps(ctx context.Context, sessionID int64, driver string) ([]*repository.Lap, error)
	CarData(ctx context.Context, sessionID int64, driver string) (
		[]*repository.CarData, error)
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*sqlite.Store)(nil)
)

// PostgresStore reads the archive from a postgres database
type PostgresStore struct {
	conn repository.Querier
}

func NewPostgresStore(conn repository.Querier) *PostgresStore {
	return &PostgresStore{conn: conn}
}

func (s *PostgresStore) Sessions(
	ctx context.Context,
	season int,
) ([]*repository.Session, error) {
	return sessionrepos.LoadBySeason(ctx, s.conn, season)
}

func (s *PostgresStore) Session(ctx context.Context, id int64) (*repository.Session, error) {
	return sessionrepos.LoadByID(ctx, s.conn, id)
}

func (s *PostgresStore) Drivers(ctx context.Context, sessionID int64) ([]string, error) {
	return laprepos.LoadDrivers(ctx, s.conn, sessionID)
}

func (s *PostgresStore) Laps(
	ctx context.Context,
	sessionID int64,
	driver string,
) ([]*repository.Lap, error) {
	return laprepos.LoadByDriver(ctx, s.conn, sessionID, driver)
}

func (s *PostgresStore) CarData(
	ctx context.Context,
	sessionID int64,
	driver string,
) ([]*repository.CarData, error) {
	return cardatarepos.LoadByDriver(ctx, s.conn, sessionID, driver)
}
