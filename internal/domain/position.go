package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Types & constants
// ──────────────────────────────────────────────────────────────────────────────

// PositionStatus represents the current state of a user's position.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "open"
	PositionClosed PositionStatus = "closed"
)

// CloseReason records why a position left the open state.
type CloseReason string

const (
	ReasonWin          CloseReason = "WIN"
	ReasonLoss         CloseReason = "LOSS"
	ReasonMarginCalled CloseReason = "MARGINCALLED"
)

// ──────────────────────────────────────────────────────────────────────────────
// Position
// ──────────────────────────────────────────────────────────────────────────────

// Position is a user's cumulative stake on one outcome. Leveraged and
// unleveraged stakes on the same outcome are kept as separate positions, so
// the logical key is (user, event, outcome, is_leveraged). Repeated wagers
// on the same key top up the existing row.
type Position struct {
	ID               uuid.UUID       `json:"id"                 db:"id"`
	UserID           uuid.UUID       `json:"user_id"            db:"user_id"`
	EventID          uuid.UUID       `json:"event_id"           db:"event_id"`
	EventOutcomeID   uuid.UUID       `json:"event_outcome_id"   db:"event_outcome_id"`
	Pledge           decimal.Decimal `json:"pledge"             db:"pledge"`
	Wager            decimal.Decimal `json:"wager"              db:"wager"`
	Loan             decimal.Decimal `json:"loan"               db:"loan"`
	Leverage         decimal.Decimal `json:"leverage"           db:"leverage"`
	IsLeveraged      bool            `json:"is_leveraged"       db:"is_leveraged"`
	EntryProbability decimal.Decimal `json:"entry_probability"  db:"entry_probability"`
	StopProbability  decimal.Decimal `json:"stop_probability"   db:"stop_probability"`
	MaxPayout        decimal.Decimal `json:"max_payout"         db:"max_payout"`
	Status           PositionStatus  `json:"status"             db:"status"`
	LastReason       *CloseReason    `json:"last_reason"        db:"last_reason"`
	Payout           *decimal.Decimal `json:"payout"            db:"payout"`
	CreatedAt        time.Time       `json:"created_at"         db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"         db:"updated_at"`
	ClosedAt         *time.Time      `json:"closed_at"          db:"closed_at"`
}

// IsOpen returns true while the position can still be stopped out or settled.
func (p *Position) IsOpen() bool {
	return p.Status == PositionOpen
}

// ShouldStopOut reports whether the outcome's current probability has fallen
// to or below the position's stop threshold. Only open leveraged positions
// are ever margin-called.
func (p *Position) ShouldStopOut(currentProbability decimal.Decimal) bool {
	if !p.IsOpen() || !p.IsLeveraged || p.StopProbability.IsZero() {
		return false
	}
	return currentProbability.LessThanOrEqual(p.StopProbability)
}

// ApplyTopUp folds a new fill into the position and refreshes the stop
// threshold from the post-fill market probability. Aggregates are cumulative;
// the effective leverage is recomputed as wager/pledge rather than kept from
// either fill.
func (p *Position) ApplyTopUp(q Quote, probabilityAfter decimal.Decimal) {
	p.Pledge = p.Pledge.Add(q.Pledge)
	p.Wager = p.Wager.Add(q.Wager)
	p.Loan = p.Loan.Add(q.Loan)
	if p.Pledge.IsPositive() {
		p.Leverage = p.Wager.Div(p.Pledge).RoundDown(4)
	}
	p.EntryProbability = probabilityAfter
	p.StopProbability = StopProbability(probabilityAfter, p.Loan, p.Wager).RoundDown(4)
	p.MaxPayout = p.MaxPayout.Add(q.IndicativePayout)
}

// ──────────────────────────────────────────────────────────────────────────────
// Read models
// ──────────────────────────────────────────────────────────────────────────────

// PositionGroup buckets a user's positions by open/closed for the positions
// endpoints.
type PositionGroup struct {
	Type      string     `json:"type"` // "open" | "closed"
	Positions []Position `json:"positions"`
}

// GroupPositions splits positions into the open/closed buckets, open first.
// Both buckets are always present, empty or not.
func GroupPositions(positions []Position) []PositionGroup {
	open := make([]Position, 0, len(positions))
	closed := make([]Position, 0)
	for _, p := range positions {
		if p.IsOpen() {
			open = append(open, p)
		} else {
			closed = append(closed, p)
		}
	}
	return []PositionGroup{
		{Type: "open", Positions: open},
		{Type: "closed", Positions: closed},
	}
}

// EventPositions pairs an event view with the caller's positions on it, the
// shape served by the dashboard endpoint.
type EventPositions struct {
	Event     EventView       `json:"event"`
	Positions []PositionGroup `json:"positions"`
}
