// Package projection turns a sorted occurrence list into per-day snapshots of
// balances and pool state for charting.
package projection

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"splitpot/backend/dates"
	"splitpot/backend/ledger"
	"splitpot/backend/models"
)

var (
	ErrInvalidRange = errors.New("invalid date range")
	ErrUnknownFocus = errors.New("focus participant not found")
)

// Options selects the window and optional focus participant. Dates are
// YYYY-MM-DD; Today is added as a checkpoint when it falls inside the window.
type Options struct {
	Start   string
	End     string
	Today   string
	FocusID string
}

// PoolSnapshot is a pool's state at the end of a day
type PoolSnapshot struct {
	Total           float64            `json:"total"`
	ExpectedMinimum float64            `json:"expected_minimum"`
	IsBelowExpected bool               `json:"is_below_expected"`
	Ownership       map[string]float64 `json:"ownership"`
}

// Snapshot is the replayed state at the end of Date. Focus holds what each
// other participant owes the focus participant, and is nil outside focus mode.
type Snapshot struct {
	Date     string                  `json:"date"`
	Balances map[string]float64      `json:"balances"`
	Pools    map[string]PoolSnapshot `json:"pools"`
	Focus    map[string]float64      `json:"focus,omitempty"`
}

// Point is one chartable value
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Checkpoints returns the sorted distinct days to snapshot: every occurrence
// date inside the window plus its bounds and today when inside.
func Checkpoints(occurrences []models.Occurrence, opts Options) ([]string, error) {
	start, err := dates.ParseLocalDate(opts.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: start: %v", ErrInvalidRange, err)
	}
	end, err := dates.ParseLocalDate(opts.End)
	if err != nil {
		return nil, fmt.Errorf("%w: end: %v", ErrInvalidRange, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s is after %s", ErrInvalidRange, opts.Start, opts.End)
	}
	startStr, endStr := dates.LocalDateString(start), dates.LocalDateString(end)

	seen := map[string]bool{startStr: true, endStr: true}
	if opts.Today != "" && opts.Today >= startStr && opts.Today <= endStr {
		seen[opts.Today] = true
	}
	for _, occ := range occurrences {
		if occ.OccurrenceDate >= startStr && occ.OccurrenceDate <= endStr {
			seen[occ.OccurrenceDate] = true
		}
	}

	days := make([]string, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Strings(days)
	return days, nil
}

// Build sweeps the occurrences once, advancing a single cursor through them
// and snapshotting at each checkpoint. occurrences must be sorted by date.
func Build(participants []models.Participant, occurrences []models.Occurrence, opts Options) ([]Snapshot, error) {
	if err := checkFocus(participants, opts.FocusID); err != nil {
		return nil, err
	}
	days, err := Checkpoints(occurrences, opts)
	if err != nil {
		return nil, err
	}

	r := ledger.NewReplayer(participants)
	snapshots := make([]Snapshot, 0, len(days))
	i := 0
	for _, day := range days {
		for i < len(occurrences) && occurrences[i].OccurrenceDate <= day {
			r.Apply(occurrences[i])
			i++
		}
		snapshots = append(snapshots, snapshot(r, participants, day, opts.FocusID))
	}
	return snapshots, nil
}

// BuildParallel gives the same result as Build by folding each checkpoint
// independently on up to workers goroutines.
func BuildParallel(ctx context.Context, participants []models.Participant, occurrences []models.Occurrence, opts Options, workers int) ([]Snapshot, error) {
	if err := checkFocus(participants, opts.FocusID); err != nil {
		return nil, err
	}
	days, err := Checkpoints(occurrences, opts)
	if err != nil {
		return nil, err
	}

	snapshots := make([]Snapshot, len(days))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, day := range days {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := ledger.NewReplayer(participants)
			r.ApplyAll(ledger.UpTo(occurrences, day))
			snapshots[i] = snapshot(r, participants, day, opts.FocusID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func checkFocus(participants []models.Participant, focusID string) error {
	if focusID == "" {
		return nil
	}
	for _, p := range participants {
		if p.ID == focusID {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownFocus, focusID)
}

func snapshot(r *ledger.Replayer, participants []models.Participant, day, focusID string) Snapshot {
	s := Snapshot{
		Date:     day,
		Balances: make(map[string]float64),
		Pools:    make(map[string]PoolSnapshot),
	}
	for _, b := range r.Balances() {
		s.Balances[b.ParticipantID] = b.Net
	}
	for _, p := range participants {
		if !p.IsPool() {
			continue
		}
		total, expected, ownership, ok := r.PoolShares(p.ID)
		if !ok {
			continue
		}
		s.Pools[p.ID] = PoolSnapshot{
			Total:           total,
			ExpectedMinimum: expected,
			IsBelowExpected: ledger.IsBelowExpected(total, expected),
			Ownership:       ownership,
		}
	}
	if focusID != "" {
		s.Focus = make(map[string]float64)
		for _, p := range participants {
			if p.ID != focusID && !p.IsPool() {
				s.Focus[p.ID] = r.PairNet(focusID, p.ID)
			}
		}
	}
	return s
}

// ParticipantSeries extracts one participant's net balance over time
func ParticipantSeries(snapshots []Snapshot, participantID string) []Point {
	out := make([]Point, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, Point{Date: s.Date, Value: s.Balances[participantID]})
	}
	return out
}

// PoolSeries extracts a pool's running total and expected minimum
func PoolSeries(snapshots []Snapshot, poolID string) (total, expected []Point) {
	total = make([]Point, 0, len(snapshots))
	expected = make([]Point, 0, len(snapshots))
	for _, s := range snapshots {
		ps := s.Pools[poolID]
		total = append(total, Point{Date: s.Date, Value: ps.Total})
		expected = append(expected, Point{Date: s.Date, Value: ps.ExpectedMinimum})
	}
	return total, expected
}

// FocusSeries extracts what otherID owes the focus participant over time
func FocusSeries(snapshots []Snapshot, otherID string) []Point {
	out := make([]Point, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, Point{Date: s.Date, Value: s.Focus[otherID]})
	}
	return out
}
