// Package ledger folds dated payment occurrences into participant balances,
// pairwise debts, pool ownership and settlement plans.
//
// A Replayer is a pure fold: it starts empty, consumes occurrences in
// non-decreasing date order and can be inspected at any point. Nothing is
// shared between replayers.
package ledger

import (
	"log"
	"slices"

	"splitpot/backend/models"
)

// epsilon absorbs float noise when comparing money amounts
const epsilon = 0.005

// PairKey identifies the money From put up on behalf of To
type PairKey struct {
	From string
	To   string
}

type flow struct {
	amount    float64
	breakdown []models.BreakdownEntry
}

// Replayer holds the running state of one fold over occurrences
type Replayer struct {
	participants map[string]models.Participant
	order        []string
	paid         map[string]float64
	owed         map[string]float64
	flows        map[PairKey]*flow
	pools        map[string]*poolState
	lastDate     string
}

// NewReplayer starts an empty fold over the given participants
func NewReplayer(participants []models.Participant) *Replayer {
	r := &Replayer{
		participants: make(map[string]models.Participant, len(participants)),
		paid:         make(map[string]float64),
		owed:         make(map[string]float64),
		flows:        make(map[PairKey]*flow),
		pools:        make(map[string]*poolState),
	}
	for _, p := range participants {
		if _, dup := r.participants[p.ID]; dup {
			continue
		}
		r.participants[p.ID] = p
		r.order = append(r.order, p.ID)
		if p.IsPool() {
			r.pools[p.ID] = newPoolState()
		}
	}
	return r
}

// Apply consumes one occurrence
func (r *Replayer) Apply(occ models.Occurrence) {
	if occ.OccurrenceDate < r.lastDate {
		log.Printf("ledger: payment %s on %s replayed after %s", occ.PaymentID, occ.OccurrenceDate, r.lastDate)
	} else {
		r.lastDate = occ.OccurrenceDate
	}

	if occ.PayerID == nil && occ.ReceiverAccountID == nil {
		log.Printf("ledger: payment %s on %s has neither payer nor receiver, skipping", occ.PaymentID, occ.OccurrenceDate)
		return
	}

	payer, ok := r.lookup(occ, occ.PayerID)
	if !ok {
		return
	}
	receiver, ok := r.lookup(occ, occ.ReceiverAccountID)
	if !ok {
		return
	}
	if payer != nil && receiver != nil && payer.ID == receiver.ID {
		log.Printf("ledger: payment %s on %s transfers %s to itself, skipping", occ.PaymentID, occ.OccurrenceDate, payer.ID)
		return
	}

	if (payer != nil && payer.IsPool()) || (receiver != nil && receiver.IsPool()) {
		r.applyPool(occ, payer, receiver)
		return
	}
	if occ.AffectsBalance {
		r.applyUsers(occ, payer, receiver)
	}
}

// ApplyAll consumes occurrences in order
func (r *Replayer) ApplyAll(occurrences []models.Occurrence) {
	for _, occ := range occurrences {
		r.Apply(occ)
	}
}

func (r *Replayer) lookup(occ models.Occurrence, id *string) (*models.Participant, bool) {
	if id == nil {
		return nil, true
	}
	p, ok := r.participants[*id]
	if !ok {
		log.Printf("ledger: payment %s on %s references unknown participant %s, skipping", occ.PaymentID, occ.OccurrenceDate, *id)
		return nil, false
	}
	return &p, true
}

// applyUsers handles the three occurrence shapes that only involve people
func (r *Replayer) applyUsers(occ models.Occurrence, payer, receiver *models.Participant) {
	switch {
	case payer != nil && receiver != nil:
		// Direct transfer between two people
		r.paid[payer.ID] += occ.Amount
		r.owed[receiver.ID] += occ.Amount
		r.addFlow(payer.ID, receiver.ID, entryFor(occ, occ.Amount))

	case payer == nil:
		// External money held by the receiver on the contributors' behalf
		r.owed[receiver.ID] += occ.Amount
		for _, c := range r.userContributions(occ) {
			r.paid[c.ParticipantID] += c.Amount
			if c.ParticipantID != receiver.ID {
				r.addFlow(c.ParticipantID, receiver.ID, entryFor(occ, c.Amount))
			}
		}

	default:
		// Shared expense paid to someone outside the project
		r.paid[payer.ID] += occ.Amount
		for _, c := range r.userContributions(occ) {
			r.owed[c.ParticipantID] += c.Amount
			if c.ParticipantID != payer.ID {
				r.addFlow(payer.ID, c.ParticipantID, entryFor(occ, c.Amount))
			}
		}
	}
}

// userContributions drops zero shares and shares held by pools or unknown ids
func (r *Replayer) userContributions(occ models.Occurrence) []models.Contribution {
	out := make([]models.Contribution, 0, len(occ.Contributions))
	for _, c := range occ.Contributions {
		if c.Amount == 0 {
			continue
		}
		p, ok := r.participants[c.ParticipantID]
		if !ok {
			log.Printf("ledger: payment %s on %s has a share for unknown participant %s", occ.PaymentID, occ.OccurrenceDate, c.ParticipantID)
			continue
		}
		if p.IsPool() {
			log.Printf("ledger: payment %s on %s has a share for pool %s", occ.PaymentID, occ.OccurrenceDate, c.ParticipantID)
			continue
		}
		out = append(out, c)
	}
	return out
}

func (r *Replayer) addFlow(from, to string, entry models.BreakdownEntry) {
	key := PairKey{From: from, To: to}
	f, ok := r.flows[key]
	if !ok {
		f = &flow{}
		r.flows[key] = f
	}
	f.amount += entry.Amount
	f.breakdown = append(f.breakdown, entry)
}

func entryFor(occ models.Occurrence, amount float64) models.BreakdownEntry {
	return models.BreakdownEntry{
		Date:        occ.OccurrenceDate,
		Amount:      amount,
		PaymentID:   occ.PaymentID,
		Description: occ.Description,
	}
}

// Net returns a participant's paid minus owed so far
func (r *Replayer) Net(participantID string) float64 {
	return r.paid[participantID] - r.owed[participantID]
}

// PairNet returns what other owes participant; negative means participant
// owes other.
func (r *Replayer) PairNet(participantID, otherID string) float64 {
	return r.flowAmount(participantID, otherID) - r.flowAmount(otherID, participantID)
}

func (r *Replayer) flowAmount(from, to string) float64 {
	if f, ok := r.flows[PairKey{From: from, To: to}]; ok {
		return f.amount
	}
	return 0
}

// Balances lists every non-pool participant in input order
func (r *Replayer) Balances() []models.Balance {
	out := []models.Balance{}
	for _, id := range r.order {
		if r.participants[id].IsPool() {
			continue
		}
		out = append(out, models.Balance{
			ParticipantID: id,
			TotalPaid:     r.paid[id],
			TotalOwed:     r.owed[id],
			Net:           r.Net(id),
		})
	}
	return out
}

// PairwiseBalances lists every ordered pair of people with money between them
func (r *Replayer) PairwiseBalances() []models.PairwiseBalance {
	out := []models.PairwiseBalance{}
	for _, id := range r.order {
		if r.participants[id].IsPool() {
			continue
		}
		for _, other := range r.order {
			if other == id || r.participants[other].IsPool() {
				continue
			}
			paidFor, hasPaid := r.flows[PairKey{From: id, To: other}]
			owedBy, hasOwed := r.flows[PairKey{From: other, To: id}]
			if !hasPaid && !hasOwed {
				continue
			}

			pb := models.PairwiseBalance{
				ParticipantID:    id,
				OtherID:          other,
				PaidForBreakdown: []models.BreakdownEntry{},
				OwedByBreakdown:  []models.BreakdownEntry{},
			}
			if hasPaid {
				pb.PaidFor = paidFor.amount
				pb.PaidForBreakdown = slices.Clone(paidFor.breakdown)
			}
			if hasOwed {
				pb.OwedBy = owedBy.amount
				pb.OwedByBreakdown = slices.Clone(owedBy.breakdown)
			}
			pb.Net = pb.PaidFor - pb.OwedBy
			out = append(out, pb)
		}
	}
	return out
}
