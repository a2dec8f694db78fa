package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"splitpot/backend/database"
	"splitpot/backend/models"
)

var validHorizons = map[string]bool{
	models.HorizonNone:           true,
	models.HorizonEndOfMonth:     true,
	models.HorizonEndOfNextMonth: true,
	models.HorizonThreeMonths:    true,
	models.HorizonSixMonths:      true,
}

func validateParticipant(p *models.Participant) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: participant name is required", ErrInvalidInput)
	}
	if p.AccountType == "" {
		p.AccountType = models.AccountTypeUser
	}
	if p.AccountType != models.AccountTypeUser && p.AccountType != models.AccountTypePool {
		return fmt.Errorf("%w: unknown account type %q", ErrInvalidInput, p.AccountType)
	}
	if p.DefaultWeight == 0 {
		p.DefaultWeight = 1
	}
	if p.DefaultWeight < 0 {
		return fmt.Errorf("%w: default weight must be positive", ErrInvalidInput)
	}
	if !validHorizons[p.WarningHorizonAccount] || !validHorizons[p.WarningHorizonUsers] {
		return fmt.Errorf("%w: unknown warning horizon", ErrInvalidInput)
	}
	if !p.IsPool() && (p.WarningHorizonAccount != "" || p.WarningHorizonUsers != "") {
		return fmt.Errorf("%w: warning horizons only apply to pools", ErrInvalidInput)
	}
	return nil
}

const participantColumns = `id, project_id, name, default_weight, account_type, user_id,
	warning_horizon_account, warning_horizon_users`

func scanParticipant(row interface{ Scan(...any) error }) (models.Participant, error) {
	var p models.Participant
	var userID sql.NullString
	err := row.Scan(&p.ID, &p.ProjectID, &p.Name, &p.DefaultWeight, &p.AccountType, &userID,
		&p.WarningHorizonAccount, &p.WarningHorizonUsers)
	if userID.Valid {
		p.UserID = &userID.String
	}
	return p, err
}

// ListParticipants returns a project's participants in name order
func ListParticipants(projectID string) ([]models.Participant, error) {
	rows, err := database.DB.Query(database.Rebind(`
		SELECT `+participantColumns+`
		FROM participants
		WHERE project_id = ?
		ORDER BY name, id
	`), projectID)
	if err != nil {
		return nil, fmt.Errorf("error listing participants: %w", err)
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// GetParticipant loads one participant of a project
func GetParticipant(projectID, id string) (*models.Participant, error) {
	p, err := scanParticipant(database.DB.QueryRow(database.Rebind(
		`SELECT `+participantColumns+` FROM participants WHERE project_id = ? AND id = ?`), projectID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting participant: %w", err)
	}
	return &p, nil
}

// CreateParticipant adds a participant to a project
func CreateParticipant(projectID string, p models.Participant) (*models.Participant, error) {
	if err := validateParticipant(&p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.ProjectID = projectID

	_, err := database.DB.Exec(database.Rebind(`
		INSERT INTO participants (`+participantColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), p.ID, p.ProjectID, p.Name, p.DefaultWeight, p.AccountType, p.UserID,
		p.WarningHorizonAccount, p.WarningHorizonUsers)
	if err != nil {
		return nil, fmt.Errorf("error creating participant: %w", err)
	}
	return &p, nil
}

// UpdateParticipant replaces a participant's fields. A participant that
// payments already reference cannot switch between user and pool.
func UpdateParticipant(projectID, id string, p models.Participant) (*models.Participant, error) {
	if err := validateParticipant(&p); err != nil {
		return nil, err
	}
	existing, err := GetParticipant(projectID, id)
	if err != nil {
		return nil, err
	}
	if existing.AccountType != p.AccountType {
		inUse, err := participantInUse(projectID, id)
		if err != nil {
			return nil, err
		}
		if inUse {
			return nil, fmt.Errorf("%w: cannot change account type", ErrParticipantInUse)
		}
	}

	p.ID, p.ProjectID = id, projectID
	_, err = database.DB.Exec(database.Rebind(`
		UPDATE participants
		SET name = ?, default_weight = ?, account_type = ?, user_id = ?,
		    warning_horizon_account = ?, warning_horizon_users = ?
		WHERE project_id = ? AND id = ?
	`), p.Name, p.DefaultWeight, p.AccountType, p.UserID,
		p.WarningHorizonAccount, p.WarningHorizonUsers, projectID, id)
	if err != nil {
		return nil, fmt.Errorf("error updating participant: %w", err)
	}
	return &p, nil
}

// DeleteParticipant removes a participant nothing refers to
func DeleteParticipant(projectID, id string) error {
	if _, err := GetParticipant(projectID, id); err != nil {
		return err
	}
	inUse, err := participantInUse(projectID, id)
	if err != nil {
		return err
	}
	if inUse {
		return ErrParticipantInUse
	}

	_, err = database.DB.Exec(database.Rebind(`DELETE FROM participants WHERE project_id = ? AND id = ?`), projectID, id)
	if err != nil {
		return fmt.Errorf("error deleting participant: %w", err)
	}
	return nil
}

func participantInUse(projectID, id string) (bool, error) {
	var n int
	err := database.DB.QueryRow(database.Rebind(`
		SELECT COUNT(*) FROM payments p
		WHERE p.project_id = ?
		  AND (p.payer_id = ? OR p.receiver_account_id = ?
		       OR EXISTS (SELECT 1 FROM contributions c WHERE c.payment_id = p.id AND c.participant_id = ?))
	`), projectID, id, id, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("error checking participant usage: %w", err)
	}
	return n > 0, nil
}
