package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutTaxRate is the cut taken from winner profit shares at resolution (2 %).
var PayoutTaxRate = decimal.NewFromFloat(0.02)

// SettlementEntry is the computed payout for one winning position.
type SettlementEntry struct {
	PositionID uuid.UUID
	UserID     uuid.UUID
	Payout     decimal.Decimal // pledge returned + taxed profit share
}

// ComputeSettlement runs the pari-mutuel split for a resolved event.
//
// Open positions on the winning outcome share the forfeited pledges of open
// losing positions, pro rata by wager, after the payout tax. Each winner also
// gets its own pledge back. Positions already closed by a margin call take no
// part on either side; their pledge was forfeited when they were stopped out.
//
//	distributable = Σ losing open pledges × (1 − tax)
//	payout_i      = pledge_i + wager_i / Σ winning wagers × distributable
//
// Payouts are floored to 4 decimal places, so rounding dust stays with the
// house rather than being minted.
func ComputeSettlement(winners, losers []Position, taxRate decimal.Decimal) []SettlementEntry {
	losingPool := decimal.Zero
	for _, p := range losers {
		if p.IsOpen() {
			losingPool = losingPool.Add(p.Pledge)
		}
	}
	distributable := losingPool.Mul(one.Sub(taxRate))

	winnerWagers := decimal.Zero
	for _, p := range winners {
		if p.IsOpen() {
			winnerWagers = winnerWagers.Add(p.Wager)
		}
	}

	entries := make([]SettlementEntry, 0, len(winners))
	for _, p := range winners {
		if !p.IsOpen() {
			continue
		}
		payout := p.Pledge
		if winnerWagers.IsPositive() {
			share := p.Wager.Div(winnerWagers)
			payout = payout.Add(share.Mul(distributable))
		}
		entries = append(entries, SettlementEntry{
			PositionID: p.ID,
			UserID:     p.UserID,
			Payout:     payout.RoundDown(4),
		})
	}
	return entries
}
