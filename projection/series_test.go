package projection

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"splitpot/backend/dates"
	"splitpot/backend/ledger"
	"splitpot/backend/models"
)

func strPtr(s string) *string { return &s }

func threeFriends() []models.Participant {
	return []models.Participant{
		{ID: "A", Name: "A", AccountType: models.AccountTypeUser},
		{ID: "B", Name: "B", AccountType: models.AccountTypeUser},
		{ID: "C", Name: "C", AccountType: models.AccountTypeUser},
		{ID: "P", Name: "Pool", AccountType: models.AccountTypePool},
	}
}

func dinner() models.Occurrence {
	return models.Occurrence{
		PaymentID:      "dinner",
		OccurrenceDate: "2025-01-10",
		Amount:         90,
		PayerID:        strPtr("A"),
		IsFinal:        true,
		AffectsBalance: true,
		Contributions: []models.Contribution{
			{ParticipantID: "A", Amount: 30},
			{ParticipantID: "B", Amount: 30},
			{ParticipantID: "C", Amount: 30},
		},
	}
}

func deposit(date, from string, amount float64) models.Occurrence {
	return models.Occurrence{
		PaymentID:                  "deposit-" + date,
		OccurrenceDate:             date,
		Amount:                     amount,
		PayerID:                    strPtr(from),
		ReceiverAccountID:          strPtr("P"),
		IsFinal:                    true,
		AffectsBalance:             true,
		AffectsReceiverExpectation: true,
	}
}

func withdraw(date, to string, amount float64) models.Occurrence {
	return models.Occurrence{
		PaymentID:               "withdraw-" + date,
		OccurrenceDate:          date,
		Amount:                  amount,
		PayerID:                 strPtr("P"),
		ReceiverAccountID:       strPtr(to),
		IsFinal:                 true,
		AffectsBalance:          true,
		AffectsPayerExpectation: true,
	}
}

func TestBalanceSeriesStepsOnExpenseDate(t *testing.T) {
	snapshots, err := Build(threeFriends(), []models.Occurrence{dinner()}, Options{
		Start: "2025-01-01",
		End:   "2025-01-31",
		Today: "2025-01-20",
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	wantDates := []string{"2025-01-01", "2025-01-10", "2025-01-20", "2025-01-31"}
	var gotDates []string
	for _, s := range snapshots {
		gotDates = append(gotDates, s.Date)
	}
	if !reflect.DeepEqual(gotDates, wantDates) {
		t.Fatalf("Expected checkpoints %v, got %v", wantDates, gotDates)
	}

	expect := map[string][]float64{
		"A": {0, 60, 60, 60},
		"B": {0, -30, -30, -30},
		"C": {0, -30, -30, -30},
	}
	for id, want := range expect {
		for i, p := range ParticipantSeries(snapshots, id) {
			if math.Abs(p.Value-want[i]) > 1e-9 {
				t.Errorf("%s on %s: expected %v, got %v", id, p.Date, want[i], p.Value)
			}
		}
	}
}

func TestHistoryBeforeWindowIsCarriedIn(t *testing.T) {
	snapshots, err := Build(threeFriends(), []models.Occurrence{dinner()}, Options{
		Start: "2025-02-01",
		End:   "2025-02-28",
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(snapshots) != 2 {
		t.Fatalf("Expected only the window bounds, got %d snapshots", len(snapshots))
	}
	if snapshots[0].Balances["A"] != 60 {
		t.Errorf("Expected A's balance from January to carry into February, got %v", snapshots[0].Balances["A"])
	}
}

func TestPoolSeriesConservesOwnership(t *testing.T) {
	occurrences := []models.Occurrence{
		deposit("2025-01-02", "A", 200),
		deposit("2025-01-05", "B", 100),
		withdraw("2025-01-08", "A", 50),
		withdraw("2025-01-15", "C", 20),
		deposit("2025-01-15", "C", 10),
	}
	snapshots, err := Build(threeFriends(), occurrences, Options{Start: "2025-01-01", End: "2025-01-31"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for _, s := range snapshots {
		ps := s.Pools["P"]
		var sum float64
		for _, v := range ps.Ownership {
			sum += v
		}
		if math.Abs(sum-ps.Total) > 1e-9 {
			t.Errorf("On %s ownership sums to %v but the pool holds %v", s.Date, sum, ps.Total)
		}
	}

	total, expected := PoolSeries(snapshots, "P")
	if last := total[len(total)-1]; last.Value != 240 {
		t.Errorf("Expected the pool to end at 240, got %v", last.Value)
	}
	if last := expected[len(expected)-1]; last.Value != 240 {
		t.Errorf("Expected the minimum to end at 240, got %v", last.Value)
	}
}

func TestFocusMode(t *testing.T) {
	snapshots, err := Build(threeFriends(), []models.Occurrence{dinner()}, Options{
		Start:   "2025-01-01",
		End:     "2025-01-31",
		FocusID: "B",
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	last := snapshots[len(snapshots)-1]
	if last.Focus["A"] != -30 || last.Focus["C"] != 0 {
		t.Errorf("Expected B to owe A 30 and nothing with C, got %v", last.Focus)
	}
	if _, ok := last.Focus["B"]; ok {
		t.Error("Expected the focus participant to be left out of its own series")
	}
	if _, ok := last.Focus["P"]; ok {
		t.Error("Expected pools to be left out of focus series")
	}

	series := FocusSeries(snapshots, "A")
	if series[0].Value != 0 || series[len(series)-1].Value != -30 {
		t.Errorf("Unexpected focus series %v", series)
	}

	if _, err := Build(threeFriends(), nil, Options{Start: "2025-01-01", End: "2025-01-31", FocusID: "Z"}); !errors.Is(err, ErrUnknownFocus) {
		t.Errorf("Expected ErrUnknownFocus, got %v", err)
	}
}

func TestInvalidRange(t *testing.T) {
	testCases := []Options{
		{Start: "2025-02-01", End: "2025-01-01"},
		{Start: "not-a-date", End: "2025-01-01"},
		{Start: "2025-01-01", End: ""},
	}
	for _, opts := range testCases {
		if _, err := Build(threeFriends(), nil, opts); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("Build(%+v): expected ErrInvalidRange, got %v", opts, err)
		}
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	occurrences := []models.Occurrence{
		deposit("2024-12-30", "A", 75),
		dinner(),
		deposit("2025-01-12", "B", 40),
		withdraw("2025-01-20", "C", 15),
	}
	opts := Options{Start: "2025-01-01", End: "2025-01-31", Today: "2025-01-12", FocusID: "A"}

	sequential, err := Build(threeFriends(), occurrences, opts)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	parallel, err := BuildParallel(context.Background(), threeFriends(), occurrences, opts, 3)
	if err != nil {
		t.Fatalf("BuildParallel failed: %v", err)
	}

	if !reflect.DeepEqual(sequential, parallel) {
		t.Errorf("Parallel snapshots differ from the sequential sweep:\n%+v\n%+v", sequential, parallel)
	}
}

func TestParallelHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildParallel(ctx, threeFriends(), []models.Occurrence{dinner()}, Options{Start: "2025-01-01", End: "2025-01-31"}, 2)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// A snapshot reads running totals only, so its cost must not grow with the
// number of occurrences already replayed
func TestSnapshotCostIndependentOfHistory(t *testing.T) {
	participants := threeFriends()
	replayed := func(n int) *ledger.Replayer {
		r := ledger.NewReplayer(participants)
		start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.Local)
		for i := 0; i < n; i++ {
			day := dates.LocalDateString(start.AddDate(0, 0, i))
			r.Apply(deposit(day, []string{"A", "B", "C"}[i%3], 10))
		}
		return r
	}

	short, long := replayed(10), replayed(2000)
	shortAllocs := testing.AllocsPerRun(20, func() { snapshot(short, participants, "2030-01-01", "A") })
	longAllocs := testing.AllocsPerRun(20, func() { snapshot(long, participants, "2030-01-01", "A") })
	if longAllocs > shortAllocs {
		t.Errorf("Expected snapshot allocations to stay flat, got %v after 10 occurrences and %v after 2000", shortAllocs, longAllocs)
	}

	s := snapshot(long, participants, "2030-01-01", "")
	if pool := s.Pools["P"]; math.Abs(pool.Total-20000) > 1e-6 || math.Abs(pool.Ownership["A"]-6670) > 1e-6 {
		t.Errorf("Unexpected pool snapshot %+v", pool)
	}
}
