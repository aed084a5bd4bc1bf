package migrate

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/db/sqlite"
)

//go:embed migrations
var migrations embed.FS

var ErrUnsupportedURL = errors.New("unsupported archive url")

// MigrateDB applies all pending migrations to the archive at dbURL.
// postgresql:// and postgres:// urls select the postgres schema, sqlite3:// urls
// and plain file paths the sqlite schema.
func MigrateDB(dbURL string) error {
	m, err := newMigrate(dbURL)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Version returns the current schema version of the archive.
// A database without applied migrations reports version 0.
func Version(dbURL string) (version uint, dirty bool, err error) {
	m, err := newMigrate(dbURL)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func newMigrate(dbURL string) (*migrate.Migrate, error) {
	dir, target, err := resolve(dbURL)
	if err != nil {
		return nil, err
	}
	source, err := iofs.New(migrations, "migrations/"+dir)
	if err != nil {
		return nil, err
	}
	return migrate.NewWithSourceInstance("iofs", source, target)
}

func resolve(dbURL string) (dir, target string, err error) {
	switch {
	case strings.HasPrefix(dbURL, "postgresql://"):
		return "postgres", strings.Replace(dbURL, "postgresql://", "pgx5://", 1), nil
	case strings.HasPrefix(dbURL, "postgres://"):
		return "postgres", strings.Replace(dbURL, "postgres://", "pgx5://", 1), nil
	case sqlite.IsSQLite(dbURL):
		return "sqlite", "sqlite3://" + sqlite.Path(dbURL), nil
	}
	return "", "", fmt.Errorf("%w: %s", ErrUnsupportedURL, dbURL)
}
