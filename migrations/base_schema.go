package migrations

import (
	"database/sql"
	"fmt"
	"log"
)

// CreateBaseSchema creates all the base tables needed for the application.
// Types are chosen so the same DDL runs on SQLite and PostgreSQL.
func CreateBaseSchema(db *sql.DB, d Dialect) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			currency_symbol TEXT NOT NULL DEFAULT '$',
			created_by TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS project_members (
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (project_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS participants (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			default_weight DOUBLE PRECISION NOT NULL DEFAULT 1,
			account_type TEXT NOT NULL DEFAULT 'user',
			user_id TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			description TEXT NOT NULL DEFAULT '',
			payer_id TEXT,
			receiver_account_id TEXT,
			amount DOUBLE PRECISION NOT NULL,
			payment_date TEXT NOT NULL,
			is_recurring BOOLEAN NOT NULL DEFAULT FALSE,
			recurrence_type TEXT NOT NULL DEFAULT '',
			recurrence_interval INTEGER NOT NULL DEFAULT 1,
			recurrence_times_per INTEGER,
			recurrence_end_date TEXT,
			recurrence_weekdays TEXT,
			recurrence_monthdays TEXT,
			recurrence_months TEXT,
			is_final BOOLEAN NOT NULL DEFAULT TRUE,
			affects_balance BOOLEAN NOT NULL DEFAULT TRUE,
			affects_payer_expectation BOOLEAN NOT NULL DEFAULT FALSE,
			affects_receiver_expectation BOOLEAN NOT NULL DEFAULT FALSE,
			source TEXT NOT NULL DEFAULT 'local',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_payments_project_date ON payments (project_id, payment_date)`,

		`CREATE TABLE IF NOT EXISTS contributions (
			payment_id TEXT NOT NULL REFERENCES payments(id) ON DELETE CASCADE,
			participant_id TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (payment_id, participant_id)
		)`,

		`CREATE TABLE IF NOT EXISTS user_preferences (
			user_id TEXT PRIMARY KEY,
			date_format TEXT NOT NULL DEFAULT 'mdy',
			decimal_separator TEXT NOT NULL DEFAULT '.',
			currency_symbol TEXT NOT NULL DEFAULT '$',
			currency_position TEXT NOT NULL DEFAULT 'before',
			locale TEXT NOT NULL DEFAULT 'en',
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create base schema: %w", err)
		}
	}

	log.Printf("Base schema created successfully (%s)", d)
	return nil
}
