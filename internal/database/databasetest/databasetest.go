// Package databasetest opens throwaway SQLite databases with the service
// schema applied, for repository and handler tests.
package databasetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun"

	"github.com/redmonkez12/taskapi/internal/database"
)

// New returns a migrated bun DB backed by a SQLite file in t.TempDir.
func New(t testing.TB) *bun.DB {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "taskapi-test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}
