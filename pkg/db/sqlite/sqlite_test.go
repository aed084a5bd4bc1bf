package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.db")
	_, err := Open(context.Background(), "sqlite3://"+path)
	assert.ErrorIs(t, err, ErrArchiveNotFound)
	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, os.ErrNotExist, "Open must not create the archive")
}

func TestOpenIsReadOnly(t *testing.T) {
	ctx := context.Background()
	url := "sqlite3://" + filepath.Join(t.TempDir(), "archive.db")
	w, err := OpenWritable(ctx, url)
	require.NoError(t, err)
	_, err = w.ExecContext(ctx, "create table x (id integer)")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	db, err := Open(ctx, url)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRowContext(ctx, "select count(*) from x").Scan(&n))
	assert.Equal(t, 0, n)
	_, err = db.ExecContext(ctx, "insert into x values (1)")
	assert.Error(t, err)
}

func TestIsSQLite(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"sqlite3:///tmp/archive.db", true},
		{"archive.db", true},
		{"postgresql://localhost/archive", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSQLite(tt.url))
		})
	}
}
