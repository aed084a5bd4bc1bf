package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const scheme = "sqlite3://"

var ErrArchiveNotFound = errors.New("archive file not found")

// IsSQLite reports whether url addresses a local sqlite archive.
// Everything without a scheme is treated as a file path.
func IsSQLite(url string) bool {
	return strings.HasPrefix(url, scheme) || (url != "" && !strings.Contains(url, "://"))
}

// Path returns the file path of a sqlite archive url
func Path(url string) string {
	return strings.TrimPrefix(url, scheme)
}

// Open opens an existing archive file read-only and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	path := Path(url)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, path)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return open(ctx, path, "file:"+path+"?mode=ro")
}

// OpenWritable opens the archive file for writing, creating it if needed.
// Only used to fill archives, queries use Open.
func OpenWritable(ctx context.Context, url string) (*sql.DB, error) {
	path := Path(url)
	return open(ctx, path, "file:"+path+"?mode=rwc")
}

func open(ctx context.Context, path, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return db, nil
}
