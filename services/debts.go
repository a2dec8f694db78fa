package services

import (
	"context"
	"fmt"
	"time"

	"splitpot/backend/dates"
	"splitpot/backend/ledger"
	"splitpot/backend/models"
	"splitpot/backend/projection"
	"splitpot/backend/recurrence"
)

// Source provides the two fetches a project overview is built from. The
// local store and a remote backend both implement it.
type Source interface {
	GetDebts(ctx context.Context, projectID, date string, includeDrafts bool) (*models.DebtSummary, error)
	GetPayments(ctx context.Context, projectID string) ([]models.Payment, error)
}

// LocalSource computes debts from the local store
type LocalSource struct{}

// GetDebts replays the project's occurrences up to and including date
func (LocalSource) GetDebts(ctx context.Context, projectID, date string, includeDrafts bool) (*models.DebtSummary, error) {
	cutoff, err := dates.ParseLocalDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q", ErrInvalidInput, date)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	participants, payments, err := loadLedger(projectID)
	if err != nil {
		return nil, err
	}

	occurrences := recurrence.Occurrences(payments, cutoff, includeDrafts)
	summary := ledger.Summarize(projectID, participants, occurrences, dates.LocalDateString(cutoff))
	return &summary, nil
}

// GetPayments lists the project's payment definitions
func (LocalSource) GetPayments(ctx context.Context, projectID string) ([]models.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ListPayments(projectID)
}

func loadLedger(projectID string) ([]models.Participant, []models.Payment, error) {
	if _, err := GetProject(projectID); err != nil {
		return nil, nil, err
	}
	participants, err := ListParticipants(projectID)
	if err != nil {
		return nil, nil, err
	}
	payments, err := ListPayments(projectID)
	if err != nil {
		return nil, nil, err
	}
	return participants, payments, nil
}

// NextOccurrences maps each recurring payment to its first occurrence after
// the given day. Payments with no further occurrence are left out.
func NextOccurrences(payments []models.Payment, after time.Time) map[string]string {
	next := make(map[string]string)
	for _, p := range payments {
		if !p.IsRecurring {
			continue
		}
		if d, ok := recurrence.Next(p, after); ok {
			next[p.ID] = dates.LocalDateString(d)
		}
	}
	return next
}

// ProjectionRequest selects a projection window
type ProjectionRequest struct {
	Start         string
	End           string
	FocusID       string
	IncludeDrafts bool
	Today         time.Time
}

// BuildProjection produces one snapshot per checkpoint in the window. With
// workers > 0 the checkpoints are folded in parallel.
func BuildProjection(ctx context.Context, projectID string, req ProjectionRequest, workers int) ([]models.Participant, []projection.Snapshot, error) {
	end, err := dates.ParseLocalDate(req.End)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: end: %v", projection.ErrInvalidRange, err)
	}

	participants, payments, err := loadLedger(projectID)
	if err != nil {
		return nil, nil, err
	}

	occurrences := recurrence.Occurrences(payments, end, req.IncludeDrafts)
	opts := projection.Options{
		Start:   req.Start,
		End:     req.End,
		Today:   dates.LocalDateString(req.Today),
		FocusID: req.FocusID,
	}

	var snapshots []projection.Snapshot
	if workers > 0 {
		snapshots, err = projection.BuildParallel(ctx, participants, occurrences, opts, workers)
	} else {
		snapshots, err = projection.Build(participants, occurrences, opts)
	}
	if err != nil {
		return nil, nil, err
	}
	return participants, snapshots, nil
}

// ProjectWarnings expands committed payments to the furthest configured pool
// horizon and reports every expected-minimum crossing
func ProjectWarnings(projectID string, today time.Time) ([]models.Warning, error) {
	participants, err := ListParticipants(projectID)
	if err != nil {
		return nil, err
	}
	horizon, ok := ledger.FurthestHorizon(participants, today)
	if !ok {
		return []models.Warning{}, nil
	}

	payments, err := ListPayments(projectID)
	if err != nil {
		return nil, err
	}
	occurrences := recurrence.Occurrences(payments, horizon, false)
	return ledger.Warnings(participants, occurrences, today), nil
}
