package services

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"splitpot/backend/database"
	"splitpot/backend/models"
)

// RoleHierarchy orders project roles; higher numbers have more permissions
var RoleHierarchy = map[string]int{
	models.RoleViewer: 1,
	models.RoleEditor: 2,
	models.RoleOwner:  3,
}

// IsRoleAtLeast checks if a role is at least at the specified level
func IsRoleAtLeast(role, requiredRole string) bool {
	level, ok := RoleHierarchy[role]
	requiredLevel, requiredOK := RoleHierarchy[requiredRole]
	if !ok || !requiredOK {
		return false
	}
	return level >= requiredLevel
}

// GetMemberRole returns the user's role in a project, or ErrNotFound when the
// user is not a member
func GetMemberRole(projectID, userID string) (string, error) {
	var role string
	err := database.DB.QueryRow(database.Rebind(
		`SELECT role FROM project_members WHERE project_id = ? AND user_id = ?`),
		projectID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("error getting member role: %w", err)
	}
	return role, nil
}

// EnsureUser records a user the first time they are seen
func EnsureUser(userID, name, email string) error {
	var exists int
	err := database.DB.QueryRow(database.Rebind(`SELECT COUNT(*) FROM users WHERE id = ?`), userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("error checking user: %w", err)
	}
	if exists > 0 {
		return nil
	}

	if name == "" {
		name = userID
	}
	_, err = database.DB.Exec(database.Rebind(
		`INSERT INTO users (id, name, email, created_at) VALUES (?, ?, ?, ?)`),
		userID, name, email, time.Now())
	if err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// ListMembers returns a project's members ordered by join time
func ListMembers(projectID string) ([]models.Member, error) {
	rows, err := database.DB.Query(database.Rebind(`
		SELECT project_id, user_id, role, created_at
		FROM project_members
		WHERE project_id = ?
		ORDER BY created_at, user_id
	`), projectID)
	if err != nil {
		return nil, fmt.Errorf("error listing members: %w", err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// SetMember adds a user to a project or changes their role. Only owners may
// grant the owner role, and the last owner cannot be demoted.
func SetMember(actorID, projectID, userID, role string) (*models.Member, error) {
	if _, ok := RoleHierarchy[role]; !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	actorRole, err := GetMemberRole(projectID, actorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if role == models.RoleOwner && actorRole != models.RoleOwner {
		return nil, fmt.Errorf("%w: only owners can add owners", ErrForbidden)
	}

	if err := EnsureUser(userID, "", ""); err != nil {
		return nil, err
	}

	current, err := GetMemberRole(projectID, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		_, err = database.DB.Exec(database.Rebind(
			`INSERT INTO project_members (project_id, user_id, role, created_at) VALUES (?, ?, ?, ?)`),
			projectID, userID, role, time.Now())
	case err != nil:
		return nil, err
	default:
		if current == models.RoleOwner && role != models.RoleOwner {
			if err := requireAnotherOwner(projectID, userID); err != nil {
				return nil, err
			}
		}
		_, err = database.DB.Exec(database.Rebind(
			`UPDATE project_members SET role = ? WHERE project_id = ? AND user_id = ?`),
			role, projectID, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("error saving member: %w", err)
	}

	log.Printf("User %s set %s as %s of project %s", actorID, userID, role, projectID)

	m := &models.Member{ProjectID: projectID, UserID: userID, Role: role}
	err = database.DB.QueryRow(database.Rebind(
		`SELECT created_at FROM project_members WHERE project_id = ? AND user_id = ?`),
		projectID, userID).Scan(&m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error reading member: %w", err)
	}
	return m, nil
}

func requireAnotherOwner(projectID, userID string) error {
	var owners int
	err := database.DB.QueryRow(database.Rebind(
		`SELECT COUNT(*) FROM project_members WHERE project_id = ? AND role = ? AND user_id <> ?`),
		projectID, models.RoleOwner, userID).Scan(&owners)
	if err != nil {
		return fmt.Errorf("error counting owners: %w", err)
	}
	if owners == 0 {
		return fmt.Errorf("%w: a project needs at least one owner", ErrInvalidInput)
	}
	return nil
}
