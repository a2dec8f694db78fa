package recurrence

import (
	"encoding/json"
	"log"
	"sort"
	"time"

	"splitpot/backend/dates"
	"splitpot/backend/models"
)

// maxOccurrences caps how many dates a single payment can expand to
const maxOccurrences = 10000

// Expand returns every occurrence date of p in [from, to], ascending.
// A zero from means "since the payment started".
func Expand(p models.Payment, from, to time.Time) []time.Time {
	r, ok := newRule(p)
	if !ok {
		return nil
	}
	to = dates.Midnight(to)
	if !from.IsZero() {
		from = dates.Midnight(from)
	}

	inWindow := func(d time.Time) bool {
		return (from.IsZero() || !d.Before(from)) && !d.After(to)
	}

	if !p.IsRecurring {
		if inWindow(r.start) {
			return []time.Time{r.start}
		}
		return nil
	}

	if !hasUsablePattern(p) {
		return r.expandInterval(inWindow, to)
	}

	var out []time.Time
	cursor := dates.AddDays(r.start, -1)
	if !from.IsZero() && from.After(r.start) {
		cursor = dates.AddDays(from, -1)
	}
	for len(out) < maxOccurrences {
		next, ok := Next(p, cursor)
		if !ok || next.After(to) {
			break
		}
		if inWindow(next) {
			out = append(out, next)
		}
		cursor = next
	}
	return out
}

// expandInterval yields the same dates repeated Next calls would, without
// re-walking from the start date each time.
func (r *rule) expandInterval(inWindow func(time.Time) bool, to time.Time) []time.Time {
	step := IntervalDays(r.payment)
	var out []time.Time
	cursor := r.start
	for i := 0; i < intervalMaxSteps; i++ {
		if cursor.After(to) || r.pastEnd(cursor) {
			break
		}
		if inWindow(cursor) {
			out = append(out, cursor)
		}
		cursor = dates.AddDays(cursor, step)
	}
	return out
}

// Previous returns the latest occurrence of p strictly before before
func Previous(p models.Payment, before time.Time) (time.Time, bool) {
	before = dates.Midnight(before)
	occurrences := Expand(p, time.Time{}, dates.AddDays(before, -1))
	if len(occurrences) == 0 {
		return time.Time{}, false
	}
	return occurrences[len(occurrences)-1], true
}

// Occurrences materializes every payment up to and including to, sorted by
// date. Payments on the same date keep their input order. Drafts are dropped
// unless includeDrafts is set.
func Occurrences(payments []models.Payment, to time.Time, includeDrafts bool) []models.Occurrence {
	var out []models.Occurrence
	for _, p := range payments {
		if !p.IsFinal && !includeDrafts {
			continue
		}
		expanded := Expand(p, time.Time{}, to)
		if len(expanded) >= maxOccurrences {
			log.Printf("recurrence: payment %s truncated at %d occurrences", p.ID, maxOccurrences)
		}
		for _, d := range expanded {
			out = append(out, models.OccurrenceOf(p, dates.LocalDateString(d)))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurrenceDate < out[j].OccurrenceDate
	})
	return out
}

// hasUsablePattern reports whether Next would use an enhanced pattern for p
func hasUsablePattern(p models.Payment) bool {
	switch {
	case p.RecurrenceType == models.RecurrenceWeekly && p.RecurrenceWeekdays != nil:
		var pattern [][]int
		return json.Unmarshal([]byte(*p.RecurrenceWeekdays), &pattern) == nil && len(pattern) > 0
	case p.RecurrenceType == models.RecurrenceMonthly && p.RecurrenceMonthdays != nil:
		var days []int
		return json.Unmarshal([]byte(*p.RecurrenceMonthdays), &days) == nil && len(days) > 0
	case p.RecurrenceType == models.RecurrenceYearly && p.RecurrenceMonths != nil:
		var months []int
		return json.Unmarshal([]byte(*p.RecurrenceMonths), &months) == nil && len(months) > 0
	}
	return false
}
