package ledger

import (
	"sort"
	"time"

	"splitpot/backend/dates"
	"splitpot/backend/models"
)

// HorizonEnd returns the last day covered by a warning horizon. The empty
// horizon, and any unknown value, disables warnings.
func HorizonEnd(today time.Time, horizon string) (time.Time, bool) {
	today = dates.Midnight(today)
	switch horizon {
	case models.HorizonEndOfMonth:
		return dates.EndOfMonth(today, 0), true
	case models.HorizonEndOfNextMonth:
		return dates.EndOfMonth(today, 1), true
	case models.HorizonThreeMonths:
		return dates.AddMonths(today, 3), true
	case models.HorizonSixMonths:
		return dates.AddMonths(today, 6), true
	default:
		return time.Time{}, false
	}
}

// FurthestHorizon returns the latest horizon end configured on any pool, so
// callers know how far to expand recurring payments.
func FurthestHorizon(participants []models.Participant, today time.Time) (time.Time, bool) {
	var furthest time.Time
	found := false
	for _, p := range participants {
		if !p.IsPool() {
			continue
		}
		for _, h := range []string{p.WarningHorizonAccount, p.WarningHorizonUsers} {
			if end, ok := HorizonEnd(today, h); ok && (!found || end.After(furthest)) {
				furthest, found = end, true
			}
		}
	}
	return furthest, found
}

// Warnings finds, for each pool with a horizon, the first day from today on
// where its balance falls below its expected minimum. Pools with a users
// horizon also get one warning per participant whose share does. occurrences
// must be sorted and expanded at least to the furthest horizon end.
func Warnings(participants []models.Participant, occurrences []models.Occurrence, today time.Time) []models.Warning {
	out := []models.Warning{}
	for _, pool := range participants {
		if !pool.IsPool() {
			continue
		}
		if end, ok := HorizonEnd(today, pool.WarningHorizonAccount); ok {
			if w, found := poolCrossing(participants, occurrences, pool.ID, today, end); found {
				out = append(out, w)
			}
		}
		if end, ok := HorizonEnd(today, pool.WarningHorizonUsers); ok {
			out = append(out, shareCrossings(participants, occurrences, pool.ID, today, end)...)
		}
	}
	return out
}

// poolCrossing replays day by day from today to end and stops at the first
// day the pool's running balance is below its running expected minimum.
func poolCrossing(participants []models.Participant, occurrences []models.Occurrence, poolID string, today, end time.Time) (models.Warning, bool) {
	todayStr := dates.LocalDateString(today)
	endStr := dates.LocalDateString(end)

	r := NewReplayer(participants)
	i := 0
	for i < len(occurrences) && occurrences[i].OccurrenceDate <= todayStr {
		r.Apply(occurrences[i])
		i++
	}

	day := todayStr
	for {
		total, expected := r.PoolBalance(poolID)
		if IsBelowExpected(total, expected) {
			return models.Warning{
				PoolID:          poolID,
				Date:            day,
				Balance:         total,
				ExpectedMinimum: expected,
				HorizonEnd:      endStr,
			}, true
		}
		if i >= len(occurrences) || occurrences[i].OccurrenceDate > endStr {
			return models.Warning{}, false
		}
		day = occurrences[i].OccurrenceDate
		for i < len(occurrences) && occurrences[i].OccurrenceDate == day {
			r.Apply(occurrences[i])
			i++
		}
	}
}

// shareCrossings works from each participant's contributed, consumed and
// expected breakdown entries rather than from the raw occurrences.
func shareCrossings(participants []models.Participant, occurrences []models.Occurrence, poolID string, today, end time.Time) []models.Warning {
	todayStr := dates.LocalDateString(today)
	endStr := dates.LocalDateString(end)

	r := NewReplayer(participants)
	r.ApplyAll(UpTo(occurrences, endStr))

	var out []models.Warning
	for _, po := range r.PoolOwnerships() {
		if po.PoolID != poolID {
			continue
		}
		for _, share := range po.Participants {
			if w, found := shareCrossing(poolID, share, todayStr, endStr); found {
				out = append(out, w)
			}
		}
	}
	return out
}

func shareCrossing(poolID string, share models.ParticipantOwnership, today, end string) (models.Warning, bool) {
	days := []string{today}
	for _, entries := range [][]models.BreakdownEntry{share.ContributedBreakdown, share.ConsumedBreakdown, share.ExpectedBreakdown} {
		for _, e := range entries {
			if e.Date > today && e.Date <= end {
				days = append(days, e.Date)
			}
		}
	}
	sort.Strings(days)

	for i, day := range days {
		if i > 0 && day == days[i-1] {
			continue
		}
		balance := sumUpTo(share.ContributedBreakdown, day) - sumUpTo(share.ConsumedBreakdown, day)
		expected := sumUpTo(share.ExpectedBreakdown, day)
		if balance < expected-epsilon {
			participantID := share.ParticipantID
			return models.Warning{
				PoolID:          poolID,
				ParticipantID:   &participantID,
				Date:            day,
				Balance:         balance,
				ExpectedMinimum: expected,
				HorizonEnd:      end,
			}, true
		}
	}
	return models.Warning{}, false
}

func sumUpTo(entries []models.BreakdownEntry, day string) float64 {
	var total float64
	for _, e := range entries {
		if e.Date <= day {
			total += e.Amount
		}
	}
	return total
}
