package ledger

import (
	"github.com/shopspring/decimal"

	"splitpot/backend/models"
)

var cent = decimal.New(1, -2)

// DirectSettlements returns one transfer per pair of people with a non-zero
// net between them. Nothing is netted across third parties.
func DirectSettlements(pairs []models.PairwiseBalance) []models.Settlement {
	out := []models.Settlement{}
	for _, pb := range pairs {
		// Each unordered pair appears twice; keep one side
		if pb.ParticipantID > pb.OtherID {
			continue
		}
		amount := decimal.NewFromFloat(pb.Net).Round(2)
		switch amount.Sign() {
		case 1:
			out = append(out, models.Settlement{From: pb.OtherID, To: pb.ParticipantID, Amount: amount.InexactFloat64()})
		case -1:
			out = append(out, models.Settlement{From: pb.ParticipantID, To: pb.OtherID, Amount: amount.Neg().InexactFloat64()})
		}
	}
	return out
}

type position struct {
	participantID string
	amount        decimal.Decimal
}

// MinimalSettlements pays off net balances with few transfers by repeatedly
// matching the largest debtor against the largest creditor. Amounts are
// settled in cents and ties go to the lower participant id.
func MinimalSettlements(balances []models.Balance) []models.Settlement {
	var creditors, debtors []*position
	for _, b := range balances {
		net := decimal.NewFromFloat(b.Net).Round(2)
		switch net.Sign() {
		case 1:
			creditors = append(creditors, &position{participantID: b.ParticipantID, amount: net})
		case -1:
			debtors = append(debtors, &position{participantID: b.ParticipantID, amount: net.Neg()})
		}
	}

	out := []models.Settlement{}
	for len(creditors) > 0 && len(debtors) > 0 {
		creditor := largest(creditors)
		debtor := largest(debtors)

		amount := decimal.Min(creditor.amount, debtor.amount)
		if amount.LessThan(cent) {
			break
		}
		out = append(out, models.Settlement{
			From:   debtor.participantID,
			To:     creditor.participantID,
			Amount: amount.InexactFloat64(),
		})

		creditor.amount = creditor.amount.Sub(amount)
		debtor.amount = debtor.amount.Sub(amount)
		creditors = open(creditors)
		debtors = open(debtors)
	}
	return out
}

func largest(positions []*position) *position {
	best := positions[0]
	for _, p := range positions[1:] {
		cmp := p.amount.Cmp(best.amount)
		if cmp > 0 || (cmp == 0 && p.participantID < best.participantID) {
			best = p
		}
	}
	return best
}

func open(positions []*position) []*position {
	out := positions[:0]
	for _, p := range positions {
		if p.amount.IsPositive() {
			out = append(out, p)
		}
	}
	return out
}

// ApplySettlements moves each transfer's amount onto the payer's net and off
// the recipient's, returning the resulting nets.
func ApplySettlements(balances []models.Balance, settlements []models.Settlement) map[string]float64 {
	nets := make(map[string]float64, len(balances))
	for _, b := range balances {
		nets[b.ParticipantID] = b.Net
	}
	for _, s := range settlements {
		nets[s.From] += s.Amount
		nets[s.To] -= s.Amount
	}
	return nets
}
