package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"splitpot/backend/migrations"
)

// Supported database/sql drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var DB *sql.DB

// Driver is the driver DB was opened with. Queries written with ? placeholders
// go through Rebind so they run on either.
var Driver = DriverSQLite

// Config selects and locates the database
type Config struct {
	Driver   string
	Path     string
	Postgres PostgresConfig
}

// InitDB opens the configured database and brings its schema up to date
func InitDB(cfg Config) error {
	var err error
	switch cfg.Driver {
	case DriverPostgres:
		DB, err = CreatePostgresDB(cfg.Postgres)
	case DriverSQLite, "":
		DB, err = openSQLite(cfg.Path)
		cfg.Driver = DriverSQLite
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return err
	}
	Driver = cfg.Driver

	return RunMigrations()
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		path = "./splitpot.db"
	}
	log.Printf("Opening SQLite database at %s", path)

	// Connection parameters to better handle concurrent handlers
	dsn := path + "?_journal=WAL&_timeout=10000&_busy_timeout=10000&_foreign_keys=on"
	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	return db, nil
}

// InitMemoryDB replaces DB with a fresh, migrated in-memory SQLite database.
// Tests use it; every call starts from an empty schema.
func InitMemoryDB() error {
	db, err := sql.Open(DriverSQLite, ":memory:?_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Each connection to :memory: is its own database
	db.SetMaxOpenConns(1)

	if DB != nil {
		DB.Close()
	}
	DB = db
	Driver = DriverSQLite
	return RunMigrations()
}

// Close releases the database handle
func Close() {
	if DB != nil {
		if err := DB.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
		DB = nil
	}
}

// RunMigrations applies any pending migrations to DB
func RunMigrations() error {
	log.Println("Running database migrations...")

	if err := migrations.RunMigrations(DB, Driver); err != nil {
		log.Printf("Error running migrations: %v", err)
		return err
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// ResetSQLite deletes a SQLite database file together with its WAL files so
// the next InitDB starts from an empty schema
func ResetSQLite(path string) error {
	for _, f := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", f, err)
		}
	}
	log.Printf("Removed SQLite database at %s", path)
	return nil
}
