package migrations

import (
	"database/sql"
	"fmt"
	"log"
)

// AddUpstreamConfigTable creates the per-project remote ledger configuration
func AddUpstreamConfigTable(db *sql.DB, d Dialect) error {
	log.Println("Running AddUpstreamConfigTable migration")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS upstream_config (
			project_id TEXT PRIMARY KEY REFERENCES projects(id) ON DELETE CASCADE,
			base_url TEXT NOT NULL DEFAULT '',
			remote_project_id TEXT NOT NULL DEFAULT '',
			encrypted_api_token TEXT NOT NULL DEFAULT '',
			sync_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			last_sync_time TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create upstream config table: %w", err)
	}

	log.Println("AddUpstreamConfigTable migration completed")
	return nil
}
