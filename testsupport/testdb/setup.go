package testdb

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/db/migrate"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/db/sqlite"
	tcpg "github.com/mpapenbr/f1-telemetry-lab/testsupport/tcpostgres"
)

// InitTestDb returns an empty postgres archive.
// TESTDB_URL selects an external database instead of a container.
func InitTestDb() *pgxpool.Pool {
	var pool *pgxpool.Pool

	if os.Getenv("TESTDB_URL") != "" {
		pool = tcpg.SetupExternalTestDb()
	} else {
		pool = tcpg.SetupTestDb()
	}
	tcpg.ClearAllTables(pool)
	return pool
}

// SkipWithoutPostgres skips tests needing a postgres archive unless
// TESTDB_URL or TESTCONTAINERS is set.
func SkipWithoutPostgres(t *testing.T) {
	t.Helper()
	if os.Getenv("TESTDB_URL") == "" && os.Getenv("TESTCONTAINERS") == "" {
		t.Skip("postgres archive not configured (set TESTDB_URL or TESTCONTAINERS)")
	}
}

// InitSQLiteDb creates a migrated sqlite archive in a temp dir removed after the test.
func InitSQLiteDb(t *testing.T) (db *sql.DB, url string) {
	t.Helper()
	url = "sqlite3://" + filepath.Join(t.TempDir(), "archive.db")
	if err := migrate.MigrateDB(url); err != nil {
		t.Fatalf("migrating sqlite archive: %v", err)
	}
	db, err := sqlite.OpenWritable(context.Background(), url)
	if err != nil {
		t.Fatalf("opening sqlite archive: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, url
}
