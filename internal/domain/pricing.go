package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Probability model
// ──────────────────────────────────────────────────────────────────────────────

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// ImpliedProbability returns the share of the event pool held by one outcome
// on a 0–100 scale. Returns decimal.Zero when the event pool is empty.
func ImpliedProbability(outcomeWager, eventWager decimal.Decimal) decimal.Decimal {
	if eventWager.IsZero() {
		return decimal.Zero
	}
	return outcomeWager.Div(eventWager).Mul(hundred)
}

// ──────────────────────────────────────────────────────────────────────────────
// Proposal — validated trade inputs
// ──────────────────────────────────────────────────────────────────────────────

// Proposal carries the trade parameters shared by quotes and wagers.
// Wager = Pledge × Leverage and Loan = Wager − Pledge are derived, never
// trusted from the client.
type Proposal struct {
	Pledge   decimal.Decimal
	Leverage decimal.Decimal
}

// Wager returns the full position size the pledge controls.
func (p Proposal) Wager() decimal.Decimal {
	return p.Pledge.Mul(p.Leverage)
}

// Loan returns the borrowed portion of the wager.
func (p Proposal) Loan() decimal.Decimal {
	return p.Wager().Sub(p.Pledge)
}

// IsLeveraged reports whether the proposal borrows at all.
func (p Proposal) IsLeveraged() bool {
	return p.Leverage.GreaterThan(one)
}

// Validate rejects structurally impossible proposals. Bound checks against a
// specific outcome live in CheckBounds; this only guards the arithmetic.
func (p Proposal) Validate() error {
	if !p.Pledge.IsPositive() {
		return ErrInvalidPledge
	}
	if p.Leverage.LessThan(one) {
		return ErrInvalidLeverage
	}
	return nil
}

// CheckBounds validates the proposal against the outcome's trading limits.
// forced skips the limit checks entirely (liquidation and top-up paths must
// not be blocked by entry limits), leaving only Validate's guards in force.
func (p Proposal) CheckBounds(o *Outcome, forced bool) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if forced {
		return nil
	}
	if p.Pledge.LessThan(o.MinPledge) {
		return ErrPledgeBelowMin
	}
	if p.Pledge.GreaterThan(o.MaxPledge) {
		return ErrPledgeAboveMax
	}
	if p.Leverage.GreaterThan(o.MaxLeverage) {
		return ErrLeverageAboveMax
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Quoting
// ──────────────────────────────────────────────────────────────────────────────

// Quote is a non-binding preview of a wager against a snapshot of the pool.
// Nothing here is persisted; the same math runs again at commit time under a
// row lock, so the executed terms can differ from the quoted ones.
type Quote struct {
	EventOutcomeID     uuid.UUID       `json:"event_outcome_id"`
	Pledge             decimal.Decimal `json:"pledge"`
	Leverage           decimal.Decimal `json:"leverage"`
	Wager              decimal.Decimal `json:"wager"`
	Loan               decimal.Decimal `json:"loan"`
	IsLeveraged        bool            `json:"is_leveraged"`
	ProbabilityBefore  decimal.Decimal `json:"probability_before"`
	ProbabilityAfter   decimal.Decimal `json:"probability_after"`
	IndicativePayout   decimal.Decimal `json:"indicative_payout"`
	StopProbability    decimal.Decimal `json:"stop_probability"`
	BeforePledge       decimal.Decimal `json:"before_pledge"`
	AfterPledge        decimal.Decimal `json:"after_pledge"`
	BeforeWager        decimal.Decimal `json:"before_wager"`
	AfterWager         decimal.Decimal `json:"after_wager"`
}

// PriceQuote prices a proposal against the outcome snapshot. existingPledge
// and existingWager are the caller's current position on this (outcome,
// leverage class), zero when none; the before/after fields are cumulative so
// repeated wagers read as top-ups.
//
// The payout model is pari-mutuel with diminishing returns: the wager joins
// the pool before pricing, so
//
//	indicativePayout = wager × (ΣW + w) / (W_i + w) − loan
//
// which equals wager/p_after (probability as a fraction) minus the loan
// repayment. All published figures are floored to 4 decimal places.
func PriceQuote(o *Outcome, eventWager decimal.Decimal, p Proposal, existingPledge, existingWager decimal.Decimal) Quote {
	w := p.Wager()
	loan := p.Loan()

	before := ImpliedProbability(o.TotalWager, eventWager)
	after := ImpliedProbability(o.TotalWager.Add(w), eventWager.Add(w))

	gross := decimal.Zero
	if after.IsPositive() {
		gross = w.Mul(hundred).Div(after)
	}
	payout := gross.Sub(loan)

	afterPledge := existingPledge.Add(p.Pledge)
	afterWager := existingWager.Add(w)

	return Quote{
		EventOutcomeID:    o.ID,
		Pledge:            p.Pledge.RoundDown(4),
		Leverage:          p.Leverage,
		Wager:             w.RoundDown(4),
		Loan:              loan.RoundDown(4),
		IsLeveraged:       p.IsLeveraged(),
		ProbabilityBefore: before.RoundDown(4),
		ProbabilityAfter:  after.RoundDown(4),
		IndicativePayout:  payout.RoundDown(4),
		StopProbability:   StopProbability(after, loan, w).RoundDown(4),
		BeforePledge:      existingPledge.RoundDown(4),
		AfterPledge:       afterPledge.RoundDown(4),
		BeforeWager:       existingWager.RoundDown(4),
		AfterWager:        afterWager.RoundDown(4),
	}
}

// StopProbability returns the margin-call threshold for a position:
//
//	stop = entryProbability × loan / wager
//
// An unleveraged position (zero loan) can never be stopped out, so the
// threshold is zero. entryProbability is on the 0–100 scale.
func StopProbability(entryProbability, loan, wager decimal.Decimal) decimal.Decimal {
	if loan.IsZero() || wager.IsZero() {
		return decimal.Zero
	}
	return entryProbability.Mul(loan).Div(wager)
}
