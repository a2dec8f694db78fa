package migrations

import (
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
)

// Dialect is the database/sql driver name the migrations run against
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

// bind numbers ? placeholders for PostgreSQL
func (d Dialect) bind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) serialPrimaryKey() string {
	if d == Postgres {
		return "SERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

type migration struct {
	name string
	fn   func(*sql.DB, Dialect) error
}

// All migrations, in the order they must run
var migrations = []migration{
	{"base_schema", CreateBaseSchema},
	{"add_warning_horizons", AddWarningHorizons},
	{"add_upstream_config", AddUpstreamConfigTable},
	{"seed_dev_data", SeedDevData},
}

// RunMigrations executes every migration not yet recorded in the migrations table
func RunMigrations(db *sql.DB, driver string) error {
	log.Println("Running migrations...")
	d := Dialect(driver)

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id ` + d.serialPrimaryKey() + `,
			name TEXT NOT NULL UNIQUE,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow(d.bind("SELECT COUNT(*) FROM migrations WHERE name = ?"), m.name).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}

		if count > 0 {
			log.Printf("Skipping already applied migration: %s", m.name)
			continue
		}

		log.Printf("Applying migration: %s", m.name)
		if err := m.fn(db, d); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.name, err)
		}

		if _, err := db.Exec(d.bind("INSERT INTO migrations (name) VALUES (?)"), m.name); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
	}

	log.Println("All migrations completed successfully")
	return nil
}

// Applied lists recorded migration names in the order they ran
func Applied(db *sql.DB) ([]string, error) {
	rows, err := db.Query("SELECT name FROM migrations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
