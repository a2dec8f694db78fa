package services

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"splitpot/backend/database"
	"splitpot/backend/models"
)

// GetUser loads a user record
func GetUser(userID string) (*models.User, error) {
	var u models.User
	var email sql.NullString
	err := database.DB.QueryRow(database.Rebind(
		`SELECT id, name, email, created_at FROM users WHERE id = ?`), userID).
		Scan(&u.ID, &u.Name, &email, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	u.Email = email.String
	return &u, nil
}

// SyncUser makes sure the authenticated user has a record and refreshes the
// profile fields the identity provider supplied
func SyncUser(userID, name, email string) (*models.User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if err := EnsureUser(userID, name, email); err != nil {
		return nil, err
	}

	if name != "" || email != "" {
		_, err := database.DB.Exec(database.Rebind(`
			UPDATE users
			SET name = COALESCE(NULLIF(?, ''), name), email = COALESCE(NULLIF(?, ''), email)
			WHERE id = ?
		`), name, email, userID)
		if err != nil {
			return nil, fmt.Errorf("error updating user: %w", err)
		}
	}

	log.Printf("Synced user %s", userID)
	return GetUser(userID)
}
