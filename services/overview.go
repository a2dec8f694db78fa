package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"splitpot/backend/dates"
	"splitpot/backend/ledger"
	"splitpot/backend/models"
)

// OverviewRequest selects what an overview shows
type OverviewRequest struct {
	ProjectID     string
	Date          string
	IncludeDrafts bool
	Mode          string // minimal or direct
}

// Overview is a project's debt summary together with its payment list
type Overview struct {
	Summary         *models.DebtSummary `json:"summary"`
	Payments        []models.Payment    `json:"payments"`
	Settlements     []models.Settlement `json:"settlements"`
	NextOccurrences map[string]string   `json:"next_occurrences"`
}

// OverviewLoader fetches debts and payments concurrently. Loads are tagged
// per key; a load finishing after a newer one for the same key started
// returns ErrStaleResponse.
type OverviewLoader struct {
	source Source

	mu          sync.Mutex
	generations map[string]uint64
}

func NewOverviewLoader(source Source) *OverviewLoader {
	return &OverviewLoader{
		source:      source,
		generations: make(map[string]uint64),
	}
}

func (l *OverviewLoader) begin(key string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generations[key]++
	return l.generations[key]
}

func (l *OverviewLoader) current(key string, gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generations[key] == gen
}

// Load runs both fetches; either failing fails the whole load
func (l *OverviewLoader) Load(ctx context.Context, key string, req OverviewRequest) (*Overview, error) {
	gen := l.begin(key)

	after, err := dates.ParseLocalDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q", ErrInvalidInput, req.Date)
	}

	var summary *models.DebtSummary
	var payments []models.Payment

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = l.source.GetDebts(gctx, req.ProjectID, req.Date, req.IncludeDrafts)
		if err != nil {
			return fmt.Errorf("error loading debts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		payments, err = l.source.GetPayments(gctx, req.ProjectID)
		if err != nil {
			return fmt.Errorf("error loading payments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !l.current(key, gen) {
		return nil, ErrStaleResponse
	}

	return &Overview{
		Summary:         summary,
		Payments:        payments,
		Settlements:     ledger.SettlementsFor(*summary, req.Mode),
		NextOccurrences: NextOccurrences(payments, after),
	}, nil
}
