package services

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"splitpot/backend/database"
	"splitpot/backend/models"
)

// ProjectInput is the writable part of a project
type ProjectInput struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	CurrencySymbol string `json:"currency_symbol"`
}

func (in *ProjectInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}
	if in.CurrencySymbol == "" {
		in.CurrencySymbol = "$"
	}
	return nil
}

const projectColumns = `p.id, p.name, p.description, p.currency_symbol, p.created_by, p.created_at, p.updated_at`

func scanProject(row interface{ Scan(...any) error }) (models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CurrencySymbol, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListProjects returns the projects the user is a member of
func ListProjects(userID string) ([]models.Project, error) {
	rows, err := database.DB.Query(database.Rebind(`
		SELECT `+projectColumns+`
		FROM projects p
		JOIN project_members m ON m.project_id = p.id
		WHERE m.user_id = ?
		ORDER BY p.name, p.id
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("error listing projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetProject loads one project
func GetProject(projectID string) (*models.Project, error) {
	p, err := scanProject(database.DB.QueryRow(database.Rebind(
		`SELECT `+projectColumns+` FROM projects p WHERE p.id = ?`), projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting project: %w", err)
	}
	return &p, nil
}

// CreateProject creates a project owned by userID
func CreateProject(userID string, in ProjectInput) (p *models.Project, err error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := EnsureUser(userID, "", ""); err != nil {
		return nil, err
	}

	now := time.Now()
	project := models.Project{
		ID:             uuid.NewString(),
		Name:           in.Name,
		Description:    in.Description,
		CurrencySymbol: in.CurrencySymbol,
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.Exec(database.Rebind(`
		INSERT INTO projects (id, name, description, currency_symbol, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), project.ID, project.Name, project.Description, project.CurrencySymbol, userID, now, now)
	if err != nil {
		return nil, fmt.Errorf("error creating project: %w", err)
	}

	_, err = tx.Exec(database.Rebind(
		`INSERT INTO project_members (project_id, user_id, role, created_at) VALUES (?, ?, ?, ?)`),
		project.ID, userID, models.RoleOwner, now)
	if err != nil {
		return nil, fmt.Errorf("error adding project owner: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing project: %w", err)
	}

	log.Printf("User %s created project %s", userID, project.ID)
	return &project, nil
}

// UpdateProject replaces a project's writable fields
func UpdateProject(projectID string, in ProjectInput) (*models.Project, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	res, err := database.DB.Exec(database.Rebind(`
		UPDATE projects SET name = ?, description = ?, currency_symbol = ?, updated_at = ?
		WHERE id = ?
	`), in.Name, in.Description, in.CurrencySymbol, time.Now(), projectID)
	if err != nil {
		return nil, fmt.Errorf("error updating project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return GetProject(projectID)
}

// DeleteProject removes a project; members, participants, payments and the
// upstream config go with it
func DeleteProject(projectID string) error {
	res, err := database.DB.Exec(database.Rebind(`DELETE FROM projects WHERE id = ?`), projectID)
	if err != nil {
		return fmt.Errorf("error deleting project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
