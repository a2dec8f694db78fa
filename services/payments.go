package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"splitpot/backend/dates"
	"splitpot/backend/database"
	"splitpot/backend/models"
)

// contributionTolerance is how far contributions may drift from the amount
const contributionTolerance = 0.01

var validRecurrenceTypes = map[string]bool{
	models.RecurrenceDaily:   true,
	models.RecurrenceWeekly:  true,
	models.RecurrenceMonthly: true,
	models.RecurrenceYearly:  true,
}

func invalidPayment(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPayment, fmt.Sprintf(format, args...))
}

// ValidatePayment checks a payment against the project's participants
func ValidatePayment(p *models.Payment, participants []models.Participant) error {
	byID := make(map[string]models.Participant, len(participants))
	for _, pt := range participants {
		byID[pt.ID] = pt
	}

	if p.Amount <= 0 || math.IsInf(p.Amount, 0) || math.IsNaN(p.Amount) {
		return invalidPayment("amount must be positive")
	}
	if _, err := dates.ParseLocalDate(p.PaymentDate); err != nil {
		return invalidPayment("bad payment date %q", p.PaymentDate)
	}

	payer, receiver := emptyToNil(p.PayerID), emptyToNil(p.ReceiverAccountID)
	p.PayerID, p.ReceiverAccountID = payer, receiver
	if payer == nil && receiver == nil {
		return invalidPayment("payer and receiver cannot both be empty")
	}

	var payerAcct, receiverAcct models.Participant
	if payer != nil {
		var ok bool
		if payerAcct, ok = byID[*payer]; !ok {
			return invalidPayment("unknown payer %s", *payer)
		}
	}
	if receiver != nil {
		var ok bool
		if receiverAcct, ok = byID[*receiver]; !ok {
			return invalidPayment("unknown receiver %s", *receiver)
		}
	}
	if payer != nil && receiver != nil {
		if *payer == *receiver {
			return invalidPayment("payer and receiver are the same participant")
		}
		if payerAcct.IsPool() && receiverAcct.IsPool() {
			return invalidPayment("transfers between pools are not allowed")
		}
	}

	// Transfers move the whole amount; expenses and inflows are split
	isTransfer := payer != nil && receiver != nil
	if !isTransfer && len(p.Contributions) == 0 {
		return invalidPayment("contributions are required for expenses and inflows")
	}
	if len(p.Contributions) > 0 {
		seen := make(map[string]bool, len(p.Contributions))
		var sum float64
		for _, c := range p.Contributions {
			pt, ok := byID[c.ParticipantID]
			if !ok {
				return invalidPayment("unknown contributor %s", c.ParticipantID)
			}
			if pt.IsPool() {
				return invalidPayment("pool %s cannot be a contributor", c.ParticipantID)
			}
			if seen[c.ParticipantID] {
				return invalidPayment("duplicate contributor %s", c.ParticipantID)
			}
			if c.Amount < 0 {
				return invalidPayment("negative contribution for %s", c.ParticipantID)
			}
			seen[c.ParticipantID] = true
			sum += c.Amount
		}
		if math.Abs(sum-p.Amount) > contributionTolerance {
			return invalidPayment("contributions sum to %.2f, amount is %.2f", sum, p.Amount)
		}
	}

	if !p.IsRecurring {
		return nil
	}
	if !validRecurrenceTypes[p.RecurrenceType] {
		return invalidPayment("unknown recurrence type %q", p.RecurrenceType)
	}
	if p.RecurrenceInterval < 1 {
		p.RecurrenceInterval = 1
	}
	if p.RecurrenceTimesPer != nil && *p.RecurrenceTimesPer < 1 {
		return invalidPayment("recurrence_times_per must be positive")
	}
	if end := emptyToNil(p.RecurrenceEndDate); end != nil {
		if _, err := dates.ParseLocalDate(*end); err != nil {
			return invalidPayment("bad recurrence end date %q", *end)
		}
	}
	patterns := []struct {
		name  string
		value *string
		dest  any
	}{
		{"recurrence_weekdays", p.RecurrenceWeekdays, &[][]int{}},
		{"recurrence_monthdays", p.RecurrenceMonthdays, &[]int{}},
		{"recurrence_months", p.RecurrenceMonths, &[]int{}},
	}
	for _, pat := range patterns {
		if pat.value == nil || *pat.value == "" {
			continue
		}
		if err := json.Unmarshal([]byte(*pat.value), pat.dest); err != nil {
			return invalidPayment("%s is not valid: %v", pat.name, err)
		}
	}
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

const paymentColumns = `id, project_id, description, payer_id, receiver_account_id, amount, payment_date,
	is_recurring, recurrence_type, recurrence_interval, recurrence_times_per, recurrence_end_date,
	recurrence_weekdays, recurrence_monthdays, recurrence_months,
	is_final, affects_balance, affects_payer_expectation, affects_receiver_expectation,
	source, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (models.Payment, error) {
	var p models.Payment
	var payer, receiver, endDate, weekdays, monthdays, months sql.NullString
	var timesPer sql.NullInt64

	err := row.Scan(&p.ID, &p.ProjectID, &p.Description, &payer, &receiver, &p.Amount, &p.PaymentDate,
		&p.IsRecurring, &p.RecurrenceType, &p.RecurrenceInterval, &timesPer, &endDate,
		&weekdays, &monthdays, &months,
		&p.IsFinal, &p.AffectsBalance, &p.AffectsPayerExpectation, &p.AffectsReceiverExpectation,
		&p.Source, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}

	p.PayerID = nullString(payer)
	p.ReceiverAccountID = nullString(receiver)
	p.RecurrenceEndDate = nullString(endDate)
	p.RecurrenceWeekdays = nullString(weekdays)
	p.RecurrenceMonthdays = nullString(monthdays)
	p.RecurrenceMonths = nullString(months)
	if timesPer.Valid {
		n := int(timesPer.Int64)
		p.RecurrenceTimesPer = &n
	}
	p.Contributions = []models.Contribution{}
	return p, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// ListPayments returns a project's payments with their contributions, in
// payment date order
func ListPayments(projectID string) ([]models.Payment, error) {
	rows, err := database.DB.Query(database.Rebind(`
		SELECT `+paymentColumns+`
		FROM payments
		WHERE project_id = ?
		ORDER BY payment_date, created_at, id
	`), projectID)
	if err != nil {
		return nil, fmt.Errorf("error listing payments: %w", err)
	}

	payments := []models.Payment{}
	index := make(map[string]int)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("error scanning payment: %w", err)
		}
		index[p.ID] = len(payments)
		payments = append(payments, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error listing payments: %w", err)
	}

	crows, err := database.DB.Query(database.Rebind(`
		SELECT c.payment_id, c.participant_id, c.amount
		FROM contributions c
		JOIN payments p ON p.id = c.payment_id
		WHERE p.project_id = ?
		ORDER BY c.payment_id, c.participant_id
	`), projectID)
	if err != nil {
		return nil, fmt.Errorf("error listing contributions: %w", err)
	}
	defer crows.Close()

	for crows.Next() {
		var paymentID string
		var c models.Contribution
		if err := crows.Scan(&paymentID, &c.ParticipantID, &c.Amount); err != nil {
			return nil, fmt.Errorf("error scanning contribution: %w", err)
		}
		if i, ok := index[paymentID]; ok {
			payments[i].Contributions = append(payments[i].Contributions, c)
		}
	}
	return payments, crows.Err()
}

// GetPayment loads one payment with its contributions
func GetPayment(projectID, id string) (*models.Payment, error) {
	p, err := scanPayment(database.DB.QueryRow(database.Rebind(
		`SELECT `+paymentColumns+` FROM payments WHERE project_id = ? AND id = ?`), projectID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting payment: %w", err)
	}

	rows, err := database.DB.Query(database.Rebind(
		`SELECT participant_id, amount FROM contributions WHERE payment_id = ? ORDER BY participant_id`), id)
	if err != nil {
		return nil, fmt.Errorf("error getting contributions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c models.Contribution
		if err := rows.Scan(&c.ParticipantID, &c.Amount); err != nil {
			return nil, fmt.Errorf("error scanning contribution: %w", err)
		}
		p.Contributions = append(p.Contributions, c)
	}
	return &p, rows.Err()
}

// CreatePayment validates and stores a new local payment
func CreatePayment(projectID string, p models.Payment) (*models.Payment, error) {
	participants, err := ListParticipants(projectID)
	if err != nil {
		return nil, err
	}
	if err := ValidatePayment(&p, participants); err != nil {
		return nil, err
	}

	now := time.Now()
	p.ID = uuid.NewString()
	p.ProjectID = projectID
	p.Source = models.SourceLocal
	p.CreatedAt, p.UpdatedAt = now, now

	if err := withTx(func(tx *sql.Tx) error { return insertPayment(tx, p) }); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePayment replaces a payment and its contributions
func UpdatePayment(projectID, id string, p models.Payment) (*models.Payment, error) {
	existing, err := GetPayment(projectID, id)
	if err != nil {
		return nil, err
	}
	participants, err := ListParticipants(projectID)
	if err != nil {
		return nil, err
	}
	if err := ValidatePayment(&p, participants); err != nil {
		return nil, err
	}

	p.ID, p.ProjectID = id, projectID
	p.Source = models.SourceLocal
	p.CreatedAt, p.UpdatedAt = existing.CreatedAt, time.Now()

	err = withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(database.Rebind(`DELETE FROM payments WHERE id = ?`), id); err != nil {
			return fmt.Errorf("error replacing payment: %w", err)
		}
		return insertPayment(tx, p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePayment removes a payment and its contributions
func DeletePayment(projectID, id string) error {
	res, err := database.DB.Exec(database.Rebind(`DELETE FROM payments WHERE project_id = ? AND id = ?`), projectID, id)
	if err != nil {
		return fmt.Errorf("error deleting payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func insertPayment(tx *sql.Tx, p models.Payment) error {
	if p.Source == "" {
		p.Source = models.SourceLocal
	}
	_, err := tx.Exec(database.Rebind(`
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), p.ID, p.ProjectID, p.Description, p.PayerID, p.ReceiverAccountID, p.Amount, p.PaymentDate,
		p.IsRecurring, p.RecurrenceType, p.RecurrenceInterval, p.RecurrenceTimesPer, p.RecurrenceEndDate,
		p.RecurrenceWeekdays, p.RecurrenceMonthdays, p.RecurrenceMonths,
		p.IsFinal, p.AffectsBalance, p.AffectsPayerExpectation, p.AffectsReceiverExpectation,
		p.Source, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting payment: %w", err)
	}

	for _, c := range p.Contributions {
		_, err := tx.Exec(database.Rebind(
			`INSERT INTO contributions (payment_id, participant_id, amount) VALUES (?, ?, ?)`),
			p.ID, c.ParticipantID, c.Amount)
		if err != nil {
			return fmt.Errorf("error inserting contribution: %w", err)
		}
	}
	return nil
}

func withTx(fn func(tx *sql.Tx) error) error {
	tx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}
