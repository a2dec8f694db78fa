package models

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"splitpot/backend/database"
	"splitpot/backend/security"
)

// UpstreamConfig points a project at a remote ledger backend it mirrors
type UpstreamConfig struct {
	ProjectID         string    `json:"project_id"`
	BaseURL           string    `json:"base_url"`
	RemoteProjectID   string    `json:"remote_project_id"`
	EncryptedAPIToken string    `json:"-"`                   // Not returned in API responses
	APIToken          string    `json:"api_token,omitempty"` // Used only for input
	SyncEnabled       bool      `json:"sync_enabled"`
	LastSyncTime      time.Time `json:"last_sync_time,omitempty"`
	HasCredentials    bool      `json:"has_credentials"`
	CreatedAt         time.Time `json:"created_at,omitempty"`
	UpdatedAt         time.Time `json:"updated_at,omitempty"`
}

// UpstreamConfigUpdateRequest is the body of PUT /projects/{projectId}/upstream
type UpstreamConfigUpdateRequest struct {
	BaseURL         string `json:"base_url"`
	RemoteProjectID string `json:"remote_project_id"`
	APIToken        string `json:"api_token"`
	SyncEnabled     bool   `json:"sync_enabled"`
}

// GetUpstreamConfig loads a project's upstream configuration. A project with
// no row gets an empty config rather than an error.
func GetUpstreamConfig(db *sql.DB, projectID string) (*UpstreamConfig, error) {
	config := UpstreamConfig{ProjectID: projectID}
	var lastSyncTime sql.NullTime

	err := db.QueryRow(database.Rebind(`
		SELECT base_url, remote_project_id, encrypted_api_token, sync_enabled,
		       last_sync_time, created_at, updated_at
		FROM upstream_config
		WHERE project_id = ?
	`), projectID).Scan(
		&config.BaseURL, &config.RemoteProjectID, &config.EncryptedAPIToken, &config.SyncEnabled,
		&lastSyncTime, &config.CreatedAt, &config.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return &config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying upstream config: %w", err)
	}

	if lastSyncTime.Valid {
		config.LastSyncTime = lastSyncTime.Time
	}
	config.HasCredentials = config.EncryptedAPIToken != "" && config.BaseURL != ""

	return &config, nil
}

// Token decrypts the stored API token
func (c *UpstreamConfig) Token() (string, error) {
	if c.EncryptedAPIToken == "" {
		return "", nil
	}
	token, err := security.Decrypt(c.EncryptedAPIToken)
	if err != nil {
		return "", fmt.Errorf("error decrypting API token: %w", err)
	}
	return token, nil
}

// UpsertUpstreamConfig creates or updates a project's upstream configuration.
// An empty APIToken keeps the stored one.
func UpsertUpstreamConfig(db *sql.DB, req *UpstreamConfigUpdateRequest, projectID string) error {
	existing, err := GetUpstreamConfig(db, projectID)
	if err != nil {
		return err
	}

	encryptedToken := existing.EncryptedAPIToken
	if req.APIToken != "" {
		encryptedToken, err = security.Encrypt(req.APIToken)
		if err != nil {
			return fmt.Errorf("error encrypting API token: %w", err)
		}
	}

	now := time.Now()
	if !existing.CreatedAt.IsZero() {
		_, err = db.Exec(database.Rebind(`
			UPDATE upstream_config
			SET base_url = ?, remote_project_id = ?, encrypted_api_token = ?, sync_enabled = ?, updated_at = ?
			WHERE project_id = ?
		`), req.BaseURL, req.RemoteProjectID, encryptedToken, req.SyncEnabled, now, projectID)
		if err != nil {
			return fmt.Errorf("error updating upstream config: %w", err)
		}
		return nil
	}

	_, err = db.Exec(database.Rebind(`
		INSERT INTO upstream_config
		(project_id, base_url, remote_project_id, encrypted_api_token, sync_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), projectID, req.BaseURL, req.RemoteProjectID, encryptedToken, req.SyncEnabled, now, now)
	if err != nil {
		return fmt.Errorf("error inserting upstream config: %w", err)
	}

	return nil
}

// ListSyncEnabledProjects returns the ids of projects with sync turned on
func ListSyncEnabledProjects(db *sql.DB) ([]string, error) {
	rows, err := db.Query(database.Rebind(`SELECT project_id FROM upstream_config WHERE sync_enabled = ?`), true)
	if err != nil {
		return nil, fmt.Errorf("error listing sync-enabled projects: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning project id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateLastSyncTime stamps a successful sync
func UpdateLastSyncTime(db *sql.DB, projectID string) error {
	now := time.Now()
	_, err := db.Exec(database.Rebind(`
		UPDATE upstream_config
		SET last_sync_time = ?, updated_at = ?
		WHERE project_id = ?
	`), now, now, projectID)
	if err != nil {
		log.Printf("Error updating last sync time for project %s: %v", projectID, err)
		return fmt.Errorf("error updating last sync time: %w", err)
	}
	return nil
}
