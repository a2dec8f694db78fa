// Package recurrence finds the dates on which a recurring payment occurs.
//
// Enhanced patterns (weekday sets, month-day sets, month sets) take precedence
// over the legacy interval rule. A pattern whose JSON does not parse is
// ignored and the next rule shape is tried; a pattern that parses but matches
// nothing inside its search window yields no date.
package recurrence

import (
	"encoding/json"
	"log"
	"sort"
	"time"

	"splitpot/backend/dates"
	"splitpot/backend/models"
)

// Search bounds for each rule shape
const (
	weekdayScanDays  = 730
	monthdayScanMons = 120
	monthScanYears   = 50
	intervalMaxSteps = 1000
)

// rule is a payment's recurrence settings resolved to local dates
type rule struct {
	payment models.Payment
	start   time.Time
	end     *time.Time
}

func newRule(p models.Payment) (*rule, bool) {
	start, err := dates.ParseLocalDate(p.PaymentDate)
	if err != nil {
		log.Printf("recurrence: payment %s has invalid date %q: %v", p.ID, p.PaymentDate, err)
		return nil, false
	}
	r := &rule{payment: p, start: start}
	if p.RecurrenceEndDate != nil && *p.RecurrenceEndDate != "" {
		end, err := dates.ParseLocalDate(*p.RecurrenceEndDate)
		if err != nil {
			log.Printf("recurrence: payment %s has invalid end date %q: %v", p.ID, *p.RecurrenceEndDate, err)
		} else {
			r.end = &end
		}
	}
	return r, true
}

func (r *rule) pastEnd(d time.Time) bool {
	return r.end != nil && d.After(*r.end)
}

// Next returns the earliest occurrence of p strictly after after.
// Non-recurring payments occur once, on their payment date.
func Next(p models.Payment, after time.Time) (time.Time, bool) {
	r, ok := newRule(p)
	if !ok {
		return time.Time{}, false
	}
	after = dates.Midnight(after)

	if !p.IsRecurring {
		if r.start.After(after) {
			return r.start, true
		}
		return time.Time{}, false
	}

	// Pattern scans are bounded, so start them no earlier than the day before
	// the rule begins.
	from := after
	if from.Before(r.start) {
		from = dates.AddDays(r.start, -1)
	}

	if p.RecurrenceType == models.RecurrenceWeekly && p.RecurrenceWeekdays != nil {
		var pattern [][]int
		if err := json.Unmarshal([]byte(*p.RecurrenceWeekdays), &pattern); err == nil && len(pattern) > 0 {
			return r.nextByWeekdays(pattern, from)
		}
	}

	if p.RecurrenceType == models.RecurrenceMonthly && p.RecurrenceMonthdays != nil {
		var days []int
		if err := json.Unmarshal([]byte(*p.RecurrenceMonthdays), &days); err == nil && len(days) > 0 {
			return r.nextByMonthdays(days, from)
		}
	}

	if p.RecurrenceType == models.RecurrenceYearly && p.RecurrenceMonths != nil {
		var months []int
		if err := json.Unmarshal([]byte(*p.RecurrenceMonths), &months); err == nil && len(months) > 0 {
			return r.nextByMonths(months, from)
		}
	}

	return r.nextByInterval(after)
}

// nextByWeekdays scans day by day. The outer pattern index is the position of
// a day's week inside a cycle anchored on the start date's week.
func (r *rule) nextByWeekdays(pattern [][]int, after time.Time) (time.Time, bool) {
	cycle := len(pattern)
	anchor := dates.WeekStart(r.start)

	for i := 1; i <= weekdayScanDays; i++ {
		d := dates.AddDays(after, i)
		if d.Before(r.start) {
			continue
		}
		if r.pastEnd(d) {
			return time.Time{}, false
		}

		weeksDiff := dates.DaysBetween(anchor, dates.WeekStart(d)) / 7
		pos := ((weeksDiff % cycle) + cycle) % cycle
		weekday := int(d.Weekday())
		for _, wd := range pattern[pos] {
			if wd == weekday {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

// nextByMonthdays scans month by month, clamping each day to the month's length
func (r *rule) nextByMonthdays(days []int, after time.Time) (time.Time, bool) {
	sorted := validSorted(days, 1, 31)
	if len(sorted) == 0 {
		return time.Time{}, false
	}

	for m := 0; m < monthdayScanMons; m++ {
		first := time.Date(after.Year(), after.Month()+time.Month(m), 1, 0, 0, 0, 0, after.Location())
		dim := dates.DaysIn(first.Year(), first.Month())
		for _, day := range sorted {
			candidate := time.Date(first.Year(), first.Month(), min(day, dim), 0, 0, 0, 0, first.Location())
			if !candidate.After(after) || candidate.Before(r.start) {
				continue
			}
			if r.pastEnd(candidate) {
				return time.Time{}, false
			}
			return candidate, true
		}
	}
	return time.Time{}, false
}

// nextByMonths scans year by year keeping the start date's day of month
func (r *rule) nextByMonths(months []int, after time.Time) (time.Time, bool) {
	sorted := validSorted(months, 1, 12)
	if len(sorted) == 0 {
		return time.Time{}, false
	}
	dayOfMonth := r.start.Day()

	for y := 0; y < monthScanYears; y++ {
		year := after.Year() + y
		for _, month := range sorted {
			dim := dates.DaysIn(year, time.Month(month))
			candidate := time.Date(year, time.Month(month), min(dayOfMonth, dim), 0, 0, 0, 0, after.Location())
			if !candidate.After(after) || candidate.Before(r.start) {
				continue
			}
			if r.pastEnd(candidate) {
				return time.Time{}, false
			}
			return candidate, true
		}
	}
	return time.Time{}, false
}

// nextByInterval walks from the start date in fixed day steps
func (r *rule) nextByInterval(after time.Time) (time.Time, bool) {
	step := IntervalDays(r.payment)
	cursor := r.start
	for i := 0; i < intervalMaxSteps; i++ {
		if cursor.After(after) {
			if r.pastEnd(cursor) {
				return time.Time{}, false
			}
			return cursor, true
		}
		cursor = dates.AddDays(cursor, step)
	}
	return time.Time{}, false
}

// IntervalDays converts the legacy interval or "N times per period" settings
// to an approximate day step, never less than one.
func IntervalDays(p models.Payment) int {
	period := periodDays(p.RecurrenceType)
	if p.RecurrenceTimesPer != nil && *p.RecurrenceTimesPer > 0 {
		return max(1, period / *p.RecurrenceTimesPer)
	}
	return max(1, max(1, p.RecurrenceInterval)*period)
}

func periodDays(recurrenceType string) int {
	switch recurrenceType {
	case models.RecurrenceWeekly:
		return 7
	case models.RecurrenceMonthly:
		return 30
	case models.RecurrenceYearly:
		return 365
	default:
		return 1
	}
}

func validSorted(values []int, lo, hi int) []int {
	out := make([]int, 0, len(values))
	for _, v := range values {
		if v >= lo && v <= hi {
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
