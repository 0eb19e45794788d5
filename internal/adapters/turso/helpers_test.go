package turso_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/emiliopalmerini/soilstab/internal/adapters/turso"
	"github.com/emiliopalmerini/soilstab/internal/migrate"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := turso.Open(ctx, turso.Config{Path: filepath.Join(t.TempDir(), "history.db")}, nil)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	if _, err := migrate.New(db, nil).Up(ctx); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}
