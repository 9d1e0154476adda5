package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
)

func TestOpen_AppliesMigrations(t *testing.T) {
	db, err := Open(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM words`); err != nil {
		t.Fatalf("words table missing: %v", err)
	}

	version, dirty, err := Version(db)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("Version() = %d, dirty %v, want 1, false", version, dirty)
	}

	// Re-running is a no-op
	if err := Migrate(db); err != nil {
		t.Errorf("second Migrate() error = %v", err)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open("mysql", "whatever"); err == nil {
		t.Error("Open() with unsupported driver should fail")
	}
}

func TestOpen_EnforcesUniqueEnglish(t *testing.T) {
	db, err := Open(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	insert := `INSERT INTO words (english, japanese_view, japanese_romaji, created_at, updated_at)
		VALUES ('meeting', '会議', 'kaigi', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	if _, err := db.Exec(insert); err != nil {
		t.Fatalf("first insert error = %v", err)
	}
	if _, err := db.Exec(insert); err == nil {
		t.Error("duplicate english insert should fail")
	}
}

// assertNoHeldConns fails if migrations left a pooled connection checked out
func assertNoHeldConns(t *testing.T, db *sqlx.DB) {
	t.Helper()

	for i := 0; i < 3; i++ {
		if err := Migrate(db); err != nil {
			t.Fatalf("Migrate() error = %v", err)
		}
		if _, _, err := Version(db); err != nil {
			t.Fatalf("Version() error = %v", err)
		}
	}

	if inUse := db.Stats().InUse; inUse != 0 {
		t.Errorf("connections in use after migrations = %d, want 0", inUse)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM words`); err != nil {
		t.Errorf("query after migrations error = %v", err)
	}
}

func TestMigrate_ReleasesConnections_SQLite(t *testing.T) {
	db, err := Open(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	assertNoHeldConns(t, db)
}

func TestMigrate_ReleasesConnections_Postgres(t *testing.T) {
	dsn := os.Getenv("VOCABTYPER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("VOCABTYPER_TEST_POSTGRES_DSN not set")
	}

	db, err := Open(DriverPostgres, dsn)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	assertNoHeldConns(t, db)
}
