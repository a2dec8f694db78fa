package ledger

import (
	"splitpot/backend/models"
)

// Summarize replays every occurrence dated on or before cutoff (YYYY-MM-DD)
// and reports the project's state as of that day. occurrences must already
// be sorted by date.
func Summarize(projectID string, participants []models.Participant, occurrences []models.Occurrence, cutoff string) models.DebtSummary {
	upTo := UpTo(occurrences, cutoff)
	if upTo == nil {
		upTo = []models.Occurrence{}
	}

	r := NewReplayer(participants)
	r.ApplyAll(upTo)

	balances := r.Balances()
	pairs := r.PairwiseBalances()

	return models.DebtSummary{
		ProjectID:         projectID,
		Date:              cutoff,
		Balances:          balances,
		PairwiseBalances:  pairs,
		Settlements:       MinimalSettlements(balances),
		DirectSettlements: DirectSettlements(pairs),
		PoolOwnerships:    r.PoolOwnerships(),
		Occurrences:       upTo,
	}
}

// UpTo returns the prefix of sorted occurrences dated on or before cutoff
func UpTo(occurrences []models.Occurrence, cutoff string) []models.Occurrence {
	n := 0
	for n < len(occurrences) && occurrences[n].OccurrenceDate <= cutoff {
		n++
	}
	return occurrences[:n:n]
}

// SettlementsFor picks the minimal or direct list from a summary
func SettlementsFor(summary models.DebtSummary, mode string) []models.Settlement {
	if mode == models.SettlementModeDirect {
		return summary.DirectSettlements
	}
	return summary.Settlements
}
