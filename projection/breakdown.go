package projection

import (
	"log"
	"sort"
	"time"

	"splitpot/backend/dates"
	"splitpot/backend/models"
)

// MonthGroup collects the items dated in one calendar month
type MonthGroup[T any] struct {
	Month time.Month `json:"month"`
	Total float64    `json:"total"`
	Items []T        `json:"items"`
}

// YearGroup collects the month groups of one year
type YearGroup[T any] struct {
	Year   int             `json:"year"`
	Total  float64         `json:"total"`
	Months []MonthGroup[T] `json:"months"`
}

// GroupByPeriod buckets items by year and month, both ascending. Items keep
// their input order inside a month. Items whose date does not parse are
// dropped with a log line.
func GroupByPeriod[T any](items []T, dateOf func(T) string, amountOf func(T) float64) []YearGroup[T] {
	type key struct {
		year  int
		month time.Month
	}
	buckets := make(map[key]*MonthGroup[T])
	var keys []key

	for _, item := range items {
		d, err := dates.ParseLocalDate(dateOf(item))
		if err != nil {
			log.Printf("projection: skipping breakdown item with bad date %q: %v", dateOf(item), err)
			continue
		}
		k := key{year: d.Year(), month: d.Month()}
		g, ok := buckets[k]
		if !ok {
			g = &MonthGroup[T]{Month: k.month}
			buckets[k] = g
			keys = append(keys, k)
		}
		g.Items = append(g.Items, item)
		g.Total += amountOf(item)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	var out []YearGroup[T]
	for _, k := range keys {
		if len(out) == 0 || out[len(out)-1].Year != k.year {
			out = append(out, YearGroup[T]{Year: k.year})
		}
		year := &out[len(out)-1]
		year.Months = append(year.Months, *buckets[k])
		year.Total += buckets[k].Total
	}
	return out
}

// GroupEntries is GroupByPeriod for ledger breakdown entries
func GroupEntries(entries []models.BreakdownEntry) []YearGroup[models.BreakdownEntry] {
	return GroupByPeriod(entries,
		func(e models.BreakdownEntry) string { return e.Date },
		func(e models.BreakdownEntry) float64 { return e.Amount },
	)
}
