package models

// Balance is one participant's net position. Net = TotalPaid - TotalOwed;
// positive means the others owe this participant.
type Balance struct {
	ParticipantID string  `json:"participant_id"`
	TotalPaid     float64 `json:"total_paid"`
	TotalOwed     float64 `json:"total_owed"`
	Net           float64 `json:"net"`
}

// BreakdownEntry is a dated amount behind an aggregate
type BreakdownEntry struct {
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	PaymentID   string  `json:"payment_id"`
	Description string  `json:"description"`
}

// PairwiseBalance is the position of ParticipantID towards OtherID.
// Net > 0 means OtherID owes ParticipantID.
type PairwiseBalance struct {
	ParticipantID    string           `json:"participant_id"`
	OtherID          string           `json:"other_id"`
	Net              float64          `json:"net"`
	PaidFor          float64          `json:"paid_for"`
	OwedBy           float64          `json:"owed_by"`
	PaidForBreakdown []BreakdownEntry `json:"paid_for_breakdown"`
	OwedByBreakdown  []BreakdownEntry `json:"owed_by_breakdown"`
}

// Settlement is a transfer that moves From's balance up and To's down
type Settlement struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// ParticipantOwnership is one participant's share of a pool
type ParticipantOwnership struct {
	ParticipantID        string           `json:"participant_id"`
	Ownership            float64          `json:"ownership"`
	Contributed          float64          `json:"contributed"`
	Consumed             float64          `json:"consumed"`
	ExpectedMinimum      float64          `json:"expected_minimum"`
	ContributedBreakdown []BreakdownEntry `json:"contributed_breakdown"`
	ConsumedBreakdown    []BreakdownEntry `json:"consumed_breakdown"`
	ExpectedBreakdown    []BreakdownEntry `json:"expected_breakdown"`
}

// PoolOwnership summarizes who put how much into a pool and took how much out
type PoolOwnership struct {
	PoolID          string                 `json:"pool_id"`
	Participants    []ParticipantOwnership `json:"participants"`
	TotalBalance    float64                `json:"total_balance"`
	ExpectedMinimum float64                `json:"expected_minimum"`
	IsBelowExpected bool                   `json:"is_below_expected"`
}

// DebtSummary is the state of a project as of a cutoff date
type DebtSummary struct {
	ProjectID         string            `json:"project_id"`
	Date              string            `json:"date"`
	Balances          []Balance         `json:"balances"`
	PairwiseBalances  []PairwiseBalance `json:"pairwise_balances"`
	Settlements       []Settlement      `json:"settlements"`
	DirectSettlements []Settlement      `json:"direct_settlements"`
	PoolOwnerships    []PoolOwnership   `json:"pool_ownerships"`
	Occurrences       []Occurrence      `json:"occurrences"`
}

// Warning marks the first date a pool, or a participant's share of it, drops
// below its expected minimum. ParticipantID is nil for the pool as a whole.
type Warning struct {
	PoolID          string  `json:"pool_id"`
	ParticipantID   *string `json:"participant_id,omitempty"`
	Date            string  `json:"date"`
	Balance         float64 `json:"balance"`
	ExpectedMinimum float64 `json:"expected_minimum"`
	HorizonEnd      string  `json:"horizon_end"`
}
