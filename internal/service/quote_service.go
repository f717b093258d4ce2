package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/predyx/exchange/internal/domain"
	"github.com/predyx/exchange/internal/repository"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Request type — shared by quotes and wagers
// ──────────────────────────────────────────────────────────────────────────────

// TradeRequest carries a client trade proposal. Wager and Loan are optional
// client echoes; when present they must match the server's derivation or the
// request is rejected before any pricing happens. MaxPayout is the client's
// slippage cap, carried over from a previous quote: the commit re-prices
// under row locks and refuses to fill below it. WalletID names the wallet the
// client expects the pledge to come from; the waterfall debit reports the
// wallet actually charged first.
type TradeRequest struct {
	EventID        uuid.UUID       `json:"event_id"         binding:"required"`
	EventOutcomeID uuid.UUID       `json:"event_outcome_id" binding:"required"`
	Pledge         decimal.Decimal `json:"pledge"           binding:"required"`
	Leverage       decimal.Decimal `json:"leverage"         binding:"required"`
	Wager          decimal.Decimal `json:"wager"`
	Loan           decimal.Decimal `json:"loan"`
	MaxPayout      decimal.Decimal `json:"max_payout"`
	WalletID       uuid.UUID       `json:"wallet_id"`
	ForceLeverage  bool            `json:"force_leverage"`
}

// Proposal converts the request into the domain value object.
func (r TradeRequest) Proposal() domain.Proposal {
	return domain.Proposal{Pledge: r.Pledge, Leverage: r.Leverage}
}

// CheckFigures rejects requests whose echoed wager/loan disagree with
// pledge × leverage. Zero echoes are treated as absent.
func (r TradeRequest) CheckFigures() error {
	p := r.Proposal()
	if !r.Wager.IsZero() && !r.Wager.Equal(p.Wager()) {
		return domain.ErrWagerMismatch
	}
	if !r.Loan.IsZero() && !r.Loan.Equal(p.Loan()) {
		return domain.ErrWagerMismatch
	}
	return nil
}

// CheckSlippage rejects a commit whose re-priced indicative payout no longer
// reaches the client's cap. A zero MaxPayout means the client set no cap.
func (r TradeRequest) CheckSlippage(q *domain.Quote) error {
	if r.MaxPayout.IsZero() {
		return nil
	}
	if q.IndicativePayout.LessThan(r.MaxPayout) {
		return domain.ErrPayoutSlippage
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// QuoteService
// ──────────────────────────────────────────────────────────────────────────────

// QuoteService prices non-binding previews against the live pool snapshot.
// Nothing here takes locks or writes; the quoted terms are re-derived at
// commit time by WagerService.
type QuoteService struct {
	eventRepo    *repository.EventRepository
	positionRepo *repository.PositionRepository
}

// NewQuoteService creates a QuoteService.
func NewQuoteService(eventRepo *repository.EventRepository, positionRepo *repository.PositionRepository) *QuoteService {
	return &QuoteService{eventRepo: eventRepo, positionRepo: positionRepo}
}

// GetQuote validates and prices a proposal. userID is optional; when present
// the before/after snapshots are cumulative over the caller's open position
// on the same outcome and leverage class.
func (s *QuoteService) GetQuote(ctx context.Context, userID *uuid.UUID, req TradeRequest) (*domain.Quote, error) {
	if err := req.CheckFigures(); err != nil {
		return nil, err
	}
	proposal := req.Proposal()

	event, err := s.eventRepo.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("quote_service.GetQuote: %w", err)
	}
	if !event.IsTradable() {
		return nil, domain.ErrEventNotTradable
	}

	outcomes, err := s.eventRepo.GetOutcomes(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("quote_service.GetQuote: %w", err)
	}

	var target *domain.Outcome
	eventWager := decimal.Zero
	for i := range outcomes {
		eventWager = eventWager.Add(outcomes[i].TotalWager)
		if outcomes[i].ID == req.EventOutcomeID {
			target = &outcomes[i]
		}
	}
	if target == nil {
		return nil, domain.ErrOutcomeNotFound
	}

	if err := proposal.CheckBounds(target, req.ForceLeverage); err != nil {
		return nil, err
	}

	existingPledge, existingWager := decimal.Zero, decimal.Zero
	if userID != nil {
		pos, err := s.positionRepo.GetOpen(ctx, *userID, target.ID, proposal.IsLeveraged())
		if err != nil && !errors.Is(err, domain.ErrPositionNotFound) {
			return nil, fmt.Errorf("quote_service.GetQuote: position: %w", err)
		}
		if pos != nil {
			existingPledge, existingWager = pos.Pledge, pos.Wager
		}
	}

	quote := domain.PriceQuote(target, eventWager, proposal, existingPledge, existingWager)
	return &quote, nil
}
