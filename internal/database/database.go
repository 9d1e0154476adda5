package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

//go:embed migrations
var migrationsFS embed.FS

// Open connects to the database and applies pending migrations
func Open(driver, dsn string) (*sqlx.DB, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite doesn't support multiple writers, and each :memory: connection is its own database
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate applies all pending up migrations for the connection's driver
func Migrate(db *sqlx.DB) error {
	m, release, err := newMigrator(db)
	if err != nil {
		return err
	}
	defer release()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Version reports the current schema version and whether it is dirty
func Version(db *sqlx.DB) (uint, bool, error) {
	m, release, err := newMigrator(db)
	if err != nil {
		return 0, false, err
	}
	defer release()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, dirty, nil
}

// newMigrator builds a migrator over db. The returned release func frees what the
// migrator holds without closing db itself.
func newMigrator(db *sqlx.DB) (*migrate.Migrate, func(), error) {
	src, err := iofs.New(migrationsFS, "migrations/"+db.DriverName())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	var (
		driver  migratedb.Driver
		release func()
	)
	switch db.DriverName() {
	case DriverSQLite:
		// The sqlite3 driver closes db on Close, so only the source is released
		driver, err = migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
		release = func() { src.Close() }
	case DriverPostgres:
		ctx := context.Background()
		var conn *sql.Conn
		conn, err = db.Conn(ctx)
		if err != nil {
			src.Close()
			return nil, nil, fmt.Errorf("failed to acquire migration connection: %w", err)
		}
		driver, err = migratepg.WithConnection(ctx, conn, &migratepg.Config{})
		if err != nil {
			conn.Close()
		}
	default:
		src.Close()
		return nil, nil, fmt.Errorf("unsupported database driver %q", db.DriverName())
	}
	if err != nil {
		src.Close()
		return nil, nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, db.DriverName(), driver)
	if err != nil {
		src.Close()
		if db.DriverName() == DriverPostgres {
			driver.Close()
		}
		return nil, nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	if release == nil {
		// Closes the source and the dedicated postgres connection, leaving the pool open
		release = func() { m.Close() }
	}
	return m, release, nil
}
