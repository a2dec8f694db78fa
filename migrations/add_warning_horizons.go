package migrations

import (
	"database/sql"
	"fmt"
	"log"
)

// AddWarningHorizons adds the pool warning horizon columns to participants
func AddWarningHorizons(db *sql.DB, d Dialect) error {
	log.Println("Adding warning horizon columns to participants table...")

	for _, column := range []string{"warning_horizon_account", "warning_horizon_users"} {
		exists, err := columnExists(db, d, "participants", column)
		if err != nil {
			return fmt.Errorf("error checking for %s column: %w", column, err)
		}
		if exists {
			log.Printf("Column %s already exists in participants table", column)
			continue
		}

		_, err = db.Exec(fmt.Sprintf(`ALTER TABLE participants ADD COLUMN %s TEXT NOT NULL DEFAULT ''`, column))
		if err != nil {
			return fmt.Errorf("error adding %s column: %w", column, err)
		}
	}

	log.Println("Successfully added warning horizon columns to participants table")
	return nil
}

// columnExists checks the live schema for a column
func columnExists(db *sql.DB, d Dialect, table, column string) (bool, error) {
	var count int
	var err error
	if d == Postgres {
		err = db.QueryRow(`
			SELECT COUNT(*)
			FROM information_schema.columns
			WHERE table_name = $1 AND column_name = $2
		`, table, column).Scan(&count)
	} else {
		err = db.QueryRow(`
			SELECT COUNT(*)
			FROM pragma_table_info(?)
			WHERE name = ?
		`, table, column).Scan(&count)
	}
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
