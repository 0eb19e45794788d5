package migrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "github.com/tursodatabase/go-libsql"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", "file:"+filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query sqlite_master: %v", err)
	}
	return count == 1
}

func TestUp_AppliesEmbeddedMigrations(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	m := New(db, nil)

	applied, err := m.Up(ctx)
	if err != nil {
		t.Fatalf("Up: %v", err)
	}
	if applied != 2 {
		t.Errorf("expected 2 migrations applied, got %d", applied)
	}
	if !tableExists(t, db, "submissions") {
		t.Error("expected submissions table to exist")
	}

	version, dirty, err := m.Version(ctx)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != 2 || dirty {
		t.Errorf("expected clean version 2, got %d (dirty=%v)", version, dirty)
	}

	applied, err = m.Up(ctx)
	if err != nil {
		t.Fatalf("second Up: %v", err)
	}
	if applied != 0 {
		t.Errorf("expected no migrations on second run, got %d", applied)
	}
}

func TestTo_RollsBackAndForward(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	m := New(db, nil)

	if _, err := m.Up(ctx); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := m.To(ctx, 0); err != nil {
		t.Fatalf("To(0): %v", err)
	}
	if tableExists(t, db, "submissions") {
		t.Error("expected submissions table to be dropped")
	}

	if err := m.To(ctx, 1); err != nil {
		t.Fatalf("To(1): %v", err)
	}
	version, _, err := m.Version(ctx)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1, got %d", version)
	}
}

func TestTo_MissingDownMigration(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	source := fstest.MapFS{
		"001_things.up.sql": {Data: []byte("CREATE TABLE things (id INTEGER PRIMARY KEY);")},
	}
	m := NewWithSource(db, source, nil)

	if _, err := m.Up(ctx); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := m.To(ctx, 0); err == nil {
		t.Error("expected error for missing down migration")
	}
}

func TestUp_RefusesDirtyDatabase(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	source := fstest.MapFS{
		"001_broken.up.sql": {Data: []byte("CREATE TABLE ok (id INTEGER); THIS IS NOT SQL;")},
	}
	m := NewWithSource(db, source, nil)

	if _, err := m.Up(ctx); err == nil {
		t.Fatal("expected error from broken migration")
	}
	if _, err := m.Up(ctx); err == nil {
		t.Error("expected dirty state to block further migrations")
	}
}

func TestLoad_SortsByVersion(t *testing.T) {
	source := fstest.MapFS{
		"010_later.up.sql":   {Data: []byte("SELECT 1")},
		"002_early.up.sql":   {Data: []byte("SELECT 2")},
		"002_early.down.sql": {Data: []byte("SELECT 3")},
		"README.md":          {Data: []byte("ignored")},
	}
	all, err := NewWithSource(nil, source, nil).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(all))
	}
	if all[0].Version != 2 || all[1].Version != 10 {
		t.Errorf("expected versions [2 10], got [%d %d]", all[0].Version, all[1].Version)
	}
	if all[0].DownSQL != "SELECT 3" {
		t.Errorf("expected down SQL for version 2, got %q", all[0].DownSQL)
	}
	if all[1].DownSQL != "" {
		t.Errorf("expected no down SQL for version 10, got %q", all[1].DownSQL)
	}
}

func TestSplitSQL(t *testing.T) {
	got := SplitSQL("CREATE TABLE a (x);\n\n  ;CREATE INDEX i ON a(x);  ")
	if len(got) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(got), got)
	}
	if got[0] != "CREATE TABLE a (x)" || got[1] != "CREATE INDEX i ON a(x)" {
		t.Errorf("unexpected statements %q", got)
	}
}
