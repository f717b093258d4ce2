// Package domain defines the core business entities and types for the
// event-outcome prediction exchange.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Types & constants
// ──────────────────────────────────────────────────────────────────────────────

// EventStatus represents the lifecycle state of an event.
type EventStatus string

const (
	StatusCreated  EventStatus = "created"  // drafted, not yet visible for trading
	StatusOpen     EventStatus = "open"     // accepting quotes and wagers
	StatusPaused   EventStatus = "paused"   // temporarily halted by admin
	StatusClosed   EventStatus = "closed"   // trading window over, awaiting resolution
	StatusResolved EventStatus = "resolved" // winner determined, payouts sent
)

// statusTransitions is the single source of truth for allowed lifecycle moves.
// Every admin operation consults this table; anything absent is a conflict.
var statusTransitions = map[EventStatus][]EventStatus{
	StatusCreated:  {StatusOpen},
	StatusOpen:     {StatusPaused, StatusClosed},
	StatusPaused:   {StatusOpen, StatusClosed},
	StatusClosed:   {StatusResolved},
	StatusResolved: {},
}

// CanTransition reports whether moving from s to target is a legal lifecycle step.
func (s EventStatus) CanTransition(target EventStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTradable returns true while quotes and wagers are accepted.
func (s EventStatus) IsTradable() bool {
	return s == StatusOpen
}

// IsTerminal returns true once no further transitions exist.
func (s EventStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// ──────────────────────────────────────────────────────────────────────────────
// Event
// ──────────────────────────────────────────────────────────────────────────────

// Event is a question with two or more mutually exclusive outcomes that users
// wager on. Exactly one outcome wins at resolution.
type Event struct {
	ID                uuid.UUID       `json:"id"                 db:"id"`
	Code              string          `json:"code"               db:"code"`
	Ticker            string          `json:"ticker"             db:"ticker"`
	Name              string          `json:"name"               db:"name"`
	Question          string          `json:"question"           db:"question"`
	Status            EventStatus     `json:"status"             db:"status"`
	Volume            decimal.Decimal `json:"volume"             db:"volume"`
	ParticipantsCount int             `json:"participants_count" db:"participants_count"`
	WinningOutcomeID  *uuid.UUID      `json:"winning_outcome_id" db:"winning_outcome_id"`
	EndsAt            *time.Time      `json:"ends_at"            db:"ends_at"`
	OpenedAt          *time.Time      `json:"opened_at"          db:"opened_at"`
	ClosedAt          *time.Time      `json:"closed_at"          db:"closed_at"`
	ResolvedAt        *time.Time      `json:"resolved_at"        db:"resolved_at"`
	CreatedAt         time.Time       `json:"created_at"         db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"         db:"updated_at"`
}

// IsTradable returns true while the event accepts quotes and wagers.
func (e *Event) IsTradable() bool {
	return e.Status.IsTradable()
}

// IsResolved returns true after the event has been settled.
func (e *Event) IsResolved() bool {
	return e.Status == StatusResolved
}

// PastEnd reports whether the trading deadline (if any) has passed.
func (e *Event) PastEnd(now time.Time) bool {
	return e.EndsAt != nil && !now.Before(*e.EndsAt)
}

// ──────────────────────────────────────────────────────────────────────────────
// Outcome
// ──────────────────────────────────────────────────────────────────────────────

// Outcome is one side of an event. The pool aggregates (TotalPledge,
// TotalWager) drive the probability model; everything else is per-outcome
// trading limits.
type Outcome struct {
	ID                       uuid.UUID       `json:"id"                           db:"id"`
	EventID                  uuid.UUID       `json:"event_id"                     db:"event_id"`
	Code                     string          `json:"code"                         db:"code"`
	Name                     string          `json:"name"                         db:"name"`
	TotalPledge              decimal.Decimal `json:"total_pledge"                 db:"total_pledge"`
	TotalWager               decimal.Decimal `json:"total_wager"                  db:"total_wager"`
	MinPledge                decimal.Decimal `json:"min_pledge"                   db:"min_pledge"`
	MaxPledge                decimal.Decimal `json:"max_pledge"                   db:"max_pledge"`
	MaxLeverage              decimal.Decimal `json:"max_leverage"                 db:"max_leverage"`
	MinCashProportionForPool decimal.Decimal `json:"min_cash_proportion_for_pool" db:"min_cash_proportion_for_pool"`
	IsWinner                 *bool           `json:"is_winner"                    db:"is_winner"`
	CreatedAt                time.Time       `json:"created_at"                   db:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"                   db:"updated_at"`
}

// Probability returns the outcome's estimated probability on a 0–100 scale
// given the event's total wager across all outcomes. Returns decimal.Zero
// when the event pool is empty.
func (o *Outcome) Probability(eventTotalWager decimal.Decimal) decimal.Decimal {
	return ImpliedProbability(o.TotalWager, eventTotalWager)
}

// TraderInfo is the per-outcome view exposed on the public event endpoint.
type TraderInfo struct {
	EstimatedProbability     decimal.Decimal `json:"estimated_probability"`
	TotalPledge              decimal.Decimal `json:"total_pledge"`
	TotalWager               decimal.Decimal `json:"total_wager"`
	MinPledge                decimal.Decimal `json:"min_pledge"`
	MaxPledge                decimal.Decimal `json:"max_pledge"`
	MaxLeverage              decimal.Decimal `json:"max_leverage"`
	MinCashProportionForPool decimal.Decimal `json:"min_cash_proportion_for_pool"`
}

// ToTraderInfo builds the public trading view of the outcome.
func (o *Outcome) ToTraderInfo(eventTotalWager decimal.Decimal) TraderInfo {
	return TraderInfo{
		EstimatedProbability:     o.Probability(eventTotalWager),
		TotalPledge:              o.TotalPledge,
		TotalWager:               o.TotalWager,
		MinPledge:                o.MinPledge,
		MaxPledge:                o.MaxPledge,
		MaxLeverage:              o.MaxLeverage,
		MinCashProportionForPool: o.MinCashProportionForPool,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// EventView — read model for the public event endpoint and WS broadcasts
// ──────────────────────────────────────────────────────────────────────────────

// OutcomeView pairs outcome identity with its trader info.
type OutcomeView struct {
	ID         uuid.UUID  `json:"id"`
	Code       string     `json:"code"`
	Name       string     `json:"name"`
	IsWinner   *bool      `json:"is_winner,omitempty"`
	TraderInfo TraderInfo `json:"trader_info"`
}

// EventView is a derived, read-only view of an event with its outcomes.
type EventView struct {
	ID                uuid.UUID       `json:"id"`
	Code              string          `json:"code"`
	Ticker            string          `json:"ticker"`
	Name              string          `json:"name"`
	Question          string          `json:"question"`
	Status            EventStatus     `json:"status"`
	Volume            decimal.Decimal `json:"volume"`
	ParticipantsCount int             `json:"participants_count"`
	EndsAt            *time.Time      `json:"ends_at"`
	ClosedAt          *time.Time      `json:"closed_at"`
	ResolvedAt        *time.Time      `json:"resolved_at"`
	Outcomes          []OutcomeView   `json:"outcomes"`
}

// ToView assembles the public read model from the event and its outcomes.
func (e *Event) ToView(outcomes []Outcome) EventView {
	total := decimal.Zero
	for _, o := range outcomes {
		total = total.Add(o.TotalWager)
	}
	views := make([]OutcomeView, 0, len(outcomes))
	for _, o := range outcomes {
		views = append(views, OutcomeView{
			ID:         o.ID,
			Code:       o.Code,
			Name:       o.Name,
			IsWinner:   o.IsWinner,
			TraderInfo: o.ToTraderInfo(total),
		})
	}
	return EventView{
		ID:                e.ID,
		Code:              e.Code,
		Ticker:            e.Ticker,
		Name:              e.Name,
		Question:          e.Question,
		Status:            e.Status,
		Volume:            e.Volume,
		ParticipantsCount: e.ParticipantsCount,
		EndsAt:            e.EndsAt,
		ClosedAt:          e.ClosedAt,
		ResolvedAt:        e.ResolvedAt,
		Outcomes:          views,
	}
}
