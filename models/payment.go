package models

import "time"

// Contribution is one participant's share of a payment
type Contribution struct {
	ParticipantID string  `json:"participant_id"`
	Amount        float64 `json:"amount"`
}

// Payment is a one-off or recurring ledger entry. A nil PayerID means the
// money came from outside the project; a non-nil ReceiverAccountID means the
// payment is a transfer into a participant or pool.
type Payment struct {
	ID                string  `json:"id"`
	ProjectID         string  `json:"project_id"`
	Description       string  `json:"description"`
	PayerID           *string `json:"payer_id"`
	ReceiverAccountID *string `json:"receiver_account_id"`
	Amount            float64 `json:"amount"`
	PaymentDate       string  `json:"payment_date"`

	IsRecurring         bool    `json:"is_recurring"`
	RecurrenceType      string  `json:"recurrence_type,omitempty"`
	RecurrenceInterval  int     `json:"recurrence_interval,omitempty"`
	RecurrenceTimesPer  *int    `json:"recurrence_times_per,omitempty"`
	RecurrenceEndDate   *string `json:"recurrence_end_date,omitempty"`
	RecurrenceWeekdays  *string `json:"recurrence_weekdays,omitempty"`  // JSON [][]int, 0=Sunday
	RecurrenceMonthdays *string `json:"recurrence_monthdays,omitempty"` // JSON []int, 1-31
	RecurrenceMonths    *string `json:"recurrence_months,omitempty"`    // JSON []int, 1-12

	IsFinal                    bool `json:"is_final"`
	AffectsBalance             bool `json:"affects_balance"`
	AffectsPayerExpectation    bool `json:"affects_payer_expectation"`
	AffectsReceiverExpectation bool `json:"affects_receiver_expectation"`

	Contributions []Contribution `json:"contributions"`

	// Source is "local" or "upstream" for payments mirrored from a remote ledger
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Occurrence is one dated materialization of a payment
type Occurrence struct {
	PaymentID                  string         `json:"payment_id"`
	OccurrenceDate             string         `json:"occurrence_date"`
	Amount                     float64        `json:"amount"`
	PayerID                    *string        `json:"payer_id"`
	ReceiverAccountID          *string        `json:"receiver_account_id"`
	Description                string         `json:"description"`
	IsRecurring                bool           `json:"is_recurring"`
	IsFinal                    bool           `json:"is_final"`
	AffectsBalance             bool           `json:"affects_balance"`
	AffectsPayerExpectation    bool           `json:"affects_payer_expectation"`
	AffectsReceiverExpectation bool           `json:"affects_receiver_expectation"`
	Contributions              []Contribution `json:"contributions"`
}

// OccurrenceOf materializes p on date
func OccurrenceOf(p Payment, date string) Occurrence {
	return Occurrence{
		PaymentID:                  p.ID,
		OccurrenceDate:             date,
		Amount:                     p.Amount,
		PayerID:                    p.PayerID,
		ReceiverAccountID:          p.ReceiverAccountID,
		Description:                p.Description,
		IsRecurring:                p.IsRecurring,
		IsFinal:                    p.IsFinal,
		AffectsBalance:             p.AffectsBalance,
		AffectsPayerExpectation:    p.AffectsPayerExpectation,
		AffectsReceiverExpectation: p.AffectsReceiverExpectation,
		Contributions:              p.Contributions,
	}
}
