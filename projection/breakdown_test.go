package projection

import (
	"testing"
	"time"

	"splitpot/backend/models"
)

func TestGroupEntriesByYearAndMonth(t *testing.T) {
	entries := []models.BreakdownEntry{
		{Date: "2025-02-03", Amount: 10, PaymentID: "rent"},
		{Date: "2024-12-31", Amount: 5, PaymentID: "gift"},
		{Date: "2025-02-01", Amount: 2.5, PaymentID: "coffee"},
		{Date: "garbage", Amount: 1000, PaymentID: "broken"},
		{Date: "2025-01-15", Amount: 7, PaymentID: "groceries"},
	}

	years := GroupEntries(entries)
	if len(years) != 2 {
		t.Fatalf("Expected two years, got %d", len(years))
	}

	if years[0].Year != 2024 || years[0].Total != 5 || len(years[0].Months) != 1 {
		t.Errorf("Unexpected 2024 group: %+v", years[0])
	}

	y2025 := years[1]
	if y2025.Year != 2025 || y2025.Total != 19.5 {
		t.Errorf("Unexpected 2025 totals: %+v", y2025)
	}
	if len(y2025.Months) != 2 || y2025.Months[0].Month != time.January || y2025.Months[1].Month != time.February {
		t.Fatalf("Expected January then February, got %+v", y2025.Months)
	}

	feb := y2025.Months[1]
	if feb.Total != 12.5 || len(feb.Items) != 2 {
		t.Errorf("Unexpected February group: %+v", feb)
	}
	// Input order is kept inside a month
	if feb.Items[0].PaymentID != "rent" || feb.Items[1].PaymentID != "coffee" {
		t.Errorf("Expected rent before coffee, got %s then %s", feb.Items[0].PaymentID, feb.Items[1].PaymentID)
	}
}

func TestGroupByPeriodCustomType(t *testing.T) {
	type expense struct {
		when string
		cost float64
	}
	items := []expense{{"2025-03-01", 1}, {"2025-03-31", 2}, {"2026-03-01", 4}}

	years := GroupByPeriod(items,
		func(e expense) string { return e.when },
		func(e expense) float64 { return e.cost },
	)
	if len(years) != 2 || years[0].Total != 3 || years[1].Total != 4 {
		t.Errorf("Unexpected grouping: %+v", years)
	}

	if got := GroupByPeriod(nil, func(e expense) string { return e.when }, func(e expense) float64 { return e.cost }); len(got) != 0 {
		t.Errorf("Expected nothing from no items, got %+v", got)
	}
}
