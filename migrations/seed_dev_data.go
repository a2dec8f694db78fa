package migrations

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"
)

// SeedDevData loads a small demo project for development environments.
// It never runs in production.
func SeedDevData(db *sql.DB, d Dialect) (err error) {
	if os.Getenv("ENV") == "production" || os.Getenv("APP_ENV") == "production" {
		log.Println("Refusing to seed demo data in production environment")
		return nil
	}
	if os.Getenv("SEED_DEV_DATA") != "true" && os.Getenv("ENV") != "development" {
		log.Println("Skipping demo data seeding - not explicitly requested and not in development")
		return nil
	}

	log.Println("Seeding demo data for development...")

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now()
	exec := func(query string, args ...any) error {
		_, execErr := tx.Exec(d.bind(query), args...)
		return execErr
	}

	if err = exec(`INSERT INTO users (id, name, email, created_at) VALUES (?, ?, ?, ?)`,
		"dev-user", "Dev User", "dev@example.com", now); err != nil {
		return fmt.Errorf("failed to insert dev user: %w", err)
	}
	if err = exec(`INSERT INTO projects (id, name, description, currency_symbol, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"demo", "Shared flat", "Demo household", "$", "dev-user", now, now); err != nil {
		return fmt.Errorf("failed to insert demo project: %w", err)
	}
	if err = exec(`INSERT INTO project_members (project_id, user_id, role, created_at) VALUES (?, ?, ?, ?)`,
		"demo", "dev-user", "owner", now); err != nil {
		return fmt.Errorf("failed to insert demo member: %w", err)
	}

	participants := []struct {
		id, name, accountType, accountHorizon, usersHorizon string
	}{
		{"alice", "Alice", "user", "", ""},
		{"bob", "Bob", "user", "", ""},
		{"carol", "Carol", "user", "", ""},
		{"house", "House fund", "pool", "end_of_next_month", "3_months"},
	}
	for _, p := range participants {
		if err = exec(`INSERT INTO participants
			(id, project_id, name, default_weight, account_type, warning_horizon_account, warning_horizon_users)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.id, "demo", p.name, 1.0, p.accountType, p.accountHorizon, p.usersHorizon); err != nil {
			return fmt.Errorf("failed to insert participant %s: %w", p.name, err)
		}
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local).AddDate(0, -2, 0).Format("2006-01-02")
	monthdays := `[1]`
	weekdays := `[[6]]`

	payments := []struct {
		id, description  string
		payer, receiver  *string
		amount           float64
		recurrenceType   string
		weekdays         *string
		monthdays        *string
		expectationFlags bool
		shares           map[string]float64
	}{
		{"rent", "Rent", strPtr("alice"), nil, 1500, "monthly", nil, &monthdays, false,
			map[string]float64{"alice": 500, "bob": 500, "carol": 500}},
		{"groceries", "Groceries", strPtr("bob"), nil, 90, "weekly", &weekdays, nil, false,
			map[string]float64{"alice": 30, "bob": 30, "carol": 30}},
		{"house-alice", "House fund deposit", strPtr("alice"), strPtr("house"), 100, "monthly", nil, &monthdays, true, nil},
		{"house-carol", "House fund deposit", strPtr("carol"), strPtr("house"), 100, "monthly", nil, &monthdays, true, nil},
	}
	for _, p := range payments {
		if err = exec(`INSERT INTO payments
			(id, project_id, description, payer_id, receiver_account_id, amount, payment_date,
			 is_recurring, recurrence_type, recurrence_interval, recurrence_weekdays, recurrence_monthdays,
			 is_final, affects_balance, affects_payer_expectation, affects_receiver_expectation,
			 created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.id, "demo", p.description, p.payer, p.receiver, p.amount, monthStart,
			true, p.recurrenceType, 1, p.weekdays, p.monthdays,
			true, true, p.expectationFlags, p.expectationFlags,
			now, now); err != nil {
			return fmt.Errorf("failed to insert payment %s: %w", p.id, err)
		}
		for participantID, amount := range p.shares {
			if err = exec(`INSERT INTO contributions (payment_id, participant_id, amount) VALUES (?, ?, ?)`,
				p.id, participantID, amount); err != nil {
				return fmt.Errorf("failed to insert contribution for %s: %w", p.id, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit demo data: %w", err)
	}

	log.Println("Demo data seeded successfully")
	return nil
}

func strPtr(s string) *string {
	return &s
}
