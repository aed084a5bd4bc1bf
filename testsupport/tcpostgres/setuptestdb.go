//nolint:errcheck // testsetup
package tcpostgres

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/db/migrate"
	database "github.com/mpapenbr/f1-telemetry-lab/pkg/db/postgres"
)

// SetupTestDb starts the archive container and returns a pool on the migrated archive
func SetupTestDb() *pgxpool.Pool {
	ctx := context.Background()
	container, err := StartArchiveContainer(ctx, WithName("f1-telemetry-lab-test"))
	if err != nil {
		log.Fatal(err)
	}
	dbURL, err := container.URL(ctx)
	if err != nil {
		log.Fatal(err)
	}
	return setup(ctx, dbURL)
}

// SetupExternalTestDb uses the database given by TESTDB_URL
func SetupExternalTestDb() *pgxpool.Pool {
	return setup(context.Background(), os.Getenv("TESTDB_URL"))
}

func setup(ctx context.Context, dbURL string) *pgxpool.Pool {
	if err := migrate.MigrateDB(dbURL); err != nil {
		log.Fatal(err)
	}
	pool, err := database.InitWithURL(ctx, dbURL)
	if err != nil {
		log.Fatal(err)
	}
	return pool
}

func ClearCarDataTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from car_data")
}

func ClearLapTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from lap")
}

func ClearSessionTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from session")
}

func ClearAllTables(pool *pgxpool.Pool) {
	ClearCarDataTable(pool)
	ClearLapTable(pool)
	ClearSessionTable(pool)
}
