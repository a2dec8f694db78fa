package ledger

import (
	"log"
	"slices"

	"splitpot/backend/models"
)

type poolState struct {
	total    float64
	expected float64
	shares   map[string]*poolShare
	order    []string
}

type poolShare struct {
	contributed          float64
	consumed             float64
	expected             float64
	contributedBreakdown []models.BreakdownEntry
	consumedBreakdown    []models.BreakdownEntry
	expectedBreakdown    []models.BreakdownEntry
}

func newPoolState() *poolState {
	return &poolState{shares: make(map[string]*poolShare)}
}

func (ps *poolState) share(participantID string) *poolShare {
	s, ok := ps.shares[participantID]
	if !ok {
		s = &poolShare{}
		ps.shares[participantID] = s
		ps.order = append(ps.order, participantID)
	}
	return s
}

// poolMove is one participant's signed change in a pool
type poolMove struct {
	participantID string
	amount        float64
}

// applyPool classifies an occurrence touching exactly one pool. Real balances
// move when the occurrence affects balances; the expected minimum moves when
// the pool's side of the payment carries its expectation flag.
func (r *Replayer) applyPool(occ models.Occurrence, payer, receiver *models.Participant) {
	if payer != nil && receiver != nil && payer.IsPool() && receiver.IsPool() {
		log.Printf("ledger: payment %s on %s moves money between pools %s and %s, skipping", occ.PaymentID, occ.OccurrenceDate, payer.ID, receiver.ID)
		return
	}

	var (
		pool     *poolState
		total    float64
		moves    []poolMove
		expected bool
	)

	switch {
	case receiver != nil && receiver.IsPool() && payer != nil:
		// Deposit
		pool = r.pools[receiver.ID]
		total = occ.Amount
		moves = []poolMove{{participantID: payer.ID, amount: occ.Amount}}
		expected = occ.AffectsReceiverExpectation

	case receiver != nil && receiver.IsPool():
		// Outside money arriving at the pool
		pool = r.pools[receiver.ID]
		total = occ.Amount
		for _, c := range r.userContributions(occ) {
			moves = append(moves, poolMove{participantID: c.ParticipantID, amount: c.Amount})
		}
		expected = occ.AffectsReceiverExpectation

	case receiver != nil:
		// Withdrawal
		pool = r.pools[payer.ID]
		total = -occ.Amount
		moves = []poolMove{{participantID: receiver.ID, amount: -occ.Amount}}
		expected = occ.AffectsPayerExpectation

	default:
		// The pool pays an outside expense
		pool = r.pools[payer.ID]
		total = -occ.Amount
		for _, c := range r.userContributions(occ) {
			moves = append(moves, poolMove{participantID: c.ParticipantID, amount: -c.Amount})
		}
		expected = occ.AffectsPayerExpectation
	}

	if occ.AffectsBalance {
		pool.total += total
		for _, m := range moves {
			s := pool.share(m.participantID)
			if m.amount >= 0 {
				s.contributed += m.amount
				s.contributedBreakdown = append(s.contributedBreakdown, entryFor(occ, m.amount))
			} else {
				s.consumed += -m.amount
				s.consumedBreakdown = append(s.consumedBreakdown, entryFor(occ, -m.amount))
			}
		}
	}

	if expected {
		pool.expected += total
		for _, m := range moves {
			s := pool.share(m.participantID)
			s.expected += m.amount
			s.expectedBreakdown = append(s.expectedBreakdown, entryFor(occ, m.amount))
		}
	}
}

// PoolBalance returns a pool's running total and expected minimum
func (r *Replayer) PoolBalance(poolID string) (total, expected float64) {
	ps, ok := r.pools[poolID]
	if !ok {
		return 0, 0
	}
	return ps.total, ps.expected
}

// PoolShares returns a pool's running totals and each participant's
// ownership. Breakdowns are not copied, so the cost does not grow with
// history.
func (r *Replayer) PoolShares(poolID string) (total, expected float64, ownership map[string]float64, ok bool) {
	ps, ok := r.pools[poolID]
	if !ok {
		return 0, 0, nil, false
	}
	ownership = make(map[string]float64, len(ps.shares))
	for pid, s := range ps.shares {
		ownership[pid] = s.contributed - s.consumed
	}
	return ps.total, ps.expected, ownership, true
}

// IsBelowExpected reports whether a pool total has dropped under its
// expected minimum
func IsBelowExpected(total, expected float64) bool {
	return total < expected-epsilon
}

// PoolOwnerships describes every pool in input order
func (r *Replayer) PoolOwnerships() []models.PoolOwnership {
	out := []models.PoolOwnership{}
	for _, id := range r.order {
		ps, ok := r.pools[id]
		if !ok {
			continue
		}
		out = append(out, r.poolOwnership(id, ps))
	}
	return out
}

func (r *Replayer) poolOwnership(poolID string, ps *poolState) models.PoolOwnership {
	po := models.PoolOwnership{
		PoolID:          poolID,
		Participants:    []models.ParticipantOwnership{},
		TotalBalance:    ps.total,
		ExpectedMinimum: ps.expected,
		IsBelowExpected: IsBelowExpected(ps.total, ps.expected),
	}
	for _, pid := range ps.order {
		s := ps.shares[pid]
		po.Participants = append(po.Participants, models.ParticipantOwnership{
			ParticipantID:        pid,
			Ownership:            s.contributed - s.consumed,
			Contributed:          s.contributed,
			Consumed:             s.consumed,
			ExpectedMinimum:      s.expected,
			ContributedBreakdown: cloneEntries(s.contributedBreakdown),
			ConsumedBreakdown:    cloneEntries(s.consumedBreakdown),
			ExpectedBreakdown:    cloneEntries(s.expectedBreakdown),
		})
	}
	return po
}

func cloneEntries(entries []models.BreakdownEntry) []models.BreakdownEntry {
	if entries == nil {
		return []models.BreakdownEntry{}
	}
	return slices.Clone(entries)
}
