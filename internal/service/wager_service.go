package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/predyx/exchange/internal/config"
	"github.com/predyx/exchange/internal/domain"
	"github.com/predyx/exchange/internal/repository"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Interfaces injected into WagerService to avoid import cycles
// ──────────────────────────────────────────────────────────────────────────────

// Broadcaster is the minimal interface the trading services need from the WS
// hub. Implemented by ws.Hub.
type Broadcaster interface {
	BroadcastEventUpdate(view *domain.EventView)
}

// ──────────────────────────────────────────────────────────────────────────────
// WagerService
// ──────────────────────────────────────────────────────────────────────────────

// PlacedWager is the committed result of a wager: the executed terms and the
// position they landed on.
type PlacedWager struct {
	Quote        domain.Quote    `json:"quote"`
	Position     domain.Position `json:"position"`
	WalletID     uuid.UUID       `json:"wallet_id"`
	MarginCalled []uuid.UUID     `json:"-"` // positions closed by this wager's sweep
}

// WagerService orchestrates wager commits. Ledger mutation, wallet debit,
// position upsert, and the margin-call sweep all happen inside a single
// PostgreSQL transaction, so a trader observing the committed wager also
// observes every stop-out it caused.
type WagerService struct {
	db           *sqlx.DB
	eventRepo    *repository.EventRepository
	positionRepo *repository.PositionRepository
	walletRepo   *repository.WalletRepository
	cfg          *config.Config
	broadcaster  Broadcaster // injected after the WS hub is built
}

// NewWagerService creates a WagerService.
func NewWagerService(
	db *sqlx.DB,
	eventRepo *repository.EventRepository,
	positionRepo *repository.PositionRepository,
	walletRepo *repository.WalletRepository,
	cfg *config.Config,
) *WagerService {
	return &WagerService{
		db:           db,
		eventRepo:    eventRepo,
		positionRepo: positionRepo,
		walletRepo:   walletRepo,
		cfg:          cfg,
	}
}

// SetBroadcaster injects the WS hub dependency post-construction.
func (s *WagerService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// ──────────────────────────────────────────────────────────────────────────────
// PlaceWager
// ──────────────────────────────────────────────────────────────────────────────

// PlaceWager commits a wager. The quoted terms are re-derived under the row
// locks, so a pool moved by concurrent wagers yields different executed terms
// rather than a stale fill; bound violations at this point surface as
// conflicts, exactly as they do at quote time. A max_payout cap carried over
// from the quote rejects the commit when the re-priced payout falls short.
func (s *WagerService) PlaceWager(ctx context.Context, userID uuid.UUID, req TradeRequest) (*PlacedWager, error) {
	// ── 1. Input validation ──────────────────────────────────────────────────
	if err := req.CheckFigures(); err != nil {
		return nil, err
	}
	proposal := req.Proposal()
	if err := proposal.Validate(); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("wager_service.PlaceWager: get event: %w", err)
	}
	if !event.IsTradable() {
		return nil, domain.ErrEventNotTradable
	}

	// ── 2. Begin transaction ─────────────────────────────────────────────────
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("wager_service.PlaceWager: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// ── 3. Lock the outcome ledger and re-check bounds ───────────────────────
	outcomes, err := s.eventRepo.LockOutcomes(ctx, tx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("wager_service.PlaceWager: lock outcomes: %w", err)
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
		err = domain.ErrOutcomeNotFound
		return nil, err
	}
	if err = proposal.CheckBounds(target, req.ForceLeverage); err != nil {
		return nil, err
	}

	// ── 4. Waterfall debit of the pledge ─────────────────────────────────────
	wallets, err := s.walletRepo.GetSetForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("wager_service.PlaceWager: wallets: %w", err)
	}
	if req.WalletID != uuid.Nil && !wallets.Contains(req.WalletID) {
		err = domain.ErrWalletNotFound
		return nil, err
	}
	legs, err := wallets.PlanDebit(proposal.Pledge)
	if err != nil {
		return nil, err
	}

	// ── 5. Price the fill against the locked snapshot ────────────────────────
	isLeveraged := proposal.IsLeveraged()
	existing, err := s.positionRepo.GetForUpdate(ctx, tx, userID, target.ID, isLeveraged)
	if err != nil && !errors.Is(err, domain.ErrPositionNotFound) {
		return nil, fmt.Errorf("wager_service.PlaceWager: position: %w", err)
	}

	existingPledge, existingWager := decimal.Zero, decimal.Zero
	if existing != nil {
		existingPledge, existingWager = existing.Pledge, existing.Wager
	}
	quote := domain.PriceQuote(target, eventWager, proposal, existingPledge, existingWager)
	if err = req.CheckSlippage(&quote); err != nil {
		return nil, err
	}

	// ── 6. Apply the debit and the ledger fill ───────────────────────────────
	now := time.Now().UTC()
	var position *domain.Position
	if existing != nil {
		position = existing
	} else {
		position = &domain.Position{
			ID:          uuid.New(),
			UserID:      userID,
			EventID:     event.ID,
			IsLeveraged: isLeveraged,
			Status:      domain.PositionOpen,
			CreatedAt:   now,
		}
		position.EventOutcomeID = target.ID
	}
	position.UpdatedAt = now

	if err = s.walletRepo.ApplyDebit(ctx, tx, wallets, legs, position.ID,
		fmt.Sprintf("pledge on %s/%s", event.Code, target.Code)); err != nil {
		return nil, err
	}

	if err = s.eventRepo.ApplyFill(ctx, tx, event.ID, target.ID, quote.Pledge, quote.Wager); err != nil {
		return nil, err
	}

	// ── 7. Upsert the position ───────────────────────────────────────────────
	if existing != nil {
		position.ApplyTopUp(quote, quote.ProbabilityAfter)
		if err = s.positionRepo.UpdateAggregates(ctx, tx, position); err != nil {
			return nil, err
		}
	} else {
		position.Pledge = quote.Pledge
		position.Wager = quote.Wager
		position.Loan = quote.Loan
		position.Leverage = quote.Leverage
		position.EntryProbability = quote.ProbabilityAfter
		position.StopProbability = quote.StopProbability
		position.MaxPayout = quote.IndicativePayout

		var held bool
		held, err = s.positionRepo.HasEventPosition(ctx, tx, userID, event.ID)
		if err != nil {
			return nil, err
		}
		if err = s.positionRepo.Create(ctx, tx, position); err != nil {
			return nil, err
		}
		if !held {
			if err = s.eventRepo.IncrementParticipants(ctx, tx, event.ID); err != nil {
				return nil, err
			}
		}
	}

	// ── 8. Margin-call sweep over the event ──────────────────────────────────
	var called []uuid.UUID
	called, err = s.sweepStops(ctx, tx, event.ID, outcomes, target.ID, quote.Wager, eventWager.Add(quote.Wager))
	if err != nil {
		return nil, err
	}

	// ── 9. Commit ────────────────────────────────────────────────────────────
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("wager_service.PlaceWager: commit: %w", err)
	}

	go s.postWagerAsync(event.ID)

	result := &PlacedWager{
		Quote:        quote,
		Position:     *position,
		MarginCalled: called,
	}
	if len(legs) > 0 {
		result.WalletID = legs[0].WalletID
	}
	return result, nil
}

// sweepStops closes every open leveraged position on the event whose outcome
// probability, after this fill, sits at or below its stop threshold. Runs
// inside the wager's transaction so the stop-outs commit with the wager that
// caused them. The triggering fill can only raise its own outcome's
// probability, so it never stops itself out.
func (s *WagerService) sweepStops(
	ctx context.Context,
	tx *sqlx.Tx,
	eventID uuid.UUID,
	outcomes []domain.Outcome,
	filledOutcomeID uuid.UUID,
	fillWager, eventWagerAfter decimal.Decimal,
) ([]uuid.UUID, error) {
	probabilities := make(map[uuid.UUID]decimal.Decimal, len(outcomes))
	for i := range outcomes {
		w := outcomes[i].TotalWager
		if outcomes[i].ID == filledOutcomeID {
			w = w.Add(fillWager)
		}
		probabilities[outcomes[i].ID] = domain.ImpliedProbability(w, eventWagerAfter)
	}

	positions, err := s.positionRepo.LockOpenByEvent(ctx, tx, eventID)
	if err != nil {
		return nil, fmt.Errorf("wager_service.sweepStops: %w", err)
	}

	var called []uuid.UUID
	for i := range positions {
		p := &positions[i]
		if !p.ShouldStopOut(probabilities[p.EventOutcomeID]) {
			continue
		}
		if err := s.positionRepo.Close(ctx, tx, p.ID, domain.ReasonMarginCalled, nil); err != nil {
			return nil, fmt.Errorf("wager_service.sweepStops: close %s: %w", p.ID, err)
		}
		called = append(called, p.ID)
	}
	return called, nil
}

// postWagerAsync broadcasts the refreshed pool state after a commit.
// Runs in a goroutine; errors are intentionally swallowed (monitoring via logs).
func (s *WagerService) postWagerAsync(eventID uuid.UUID) {
	if s.broadcaster == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		log.Printf("[wager] WARN broadcast fetch event %s: %v", eventID, err)
		return
	}
	outcomes, err := s.eventRepo.GetOutcomes(ctx, eventID)
	if err != nil {
		log.Printf("[wager] WARN broadcast fetch outcomes %s: %v", eventID, err)
		return
	}
	view := event.ToView(outcomes)
	s.broadcaster.BroadcastEventUpdate(&view)
}

// ──────────────────────────────────────────────────────────────────────────────
// Query helpers
// ──────────────────────────────────────────────────────────────────────────────

// GetEventPositions returns the caller's positions on one event grouped by
// open/closed. The event must exist; holding no positions is an empty result,
// not an error.
func (s *WagerService) GetEventPositions(ctx context.Context, userID uuid.UUID, eventRef string) ([]domain.PositionGroup, error) {
	event, err := s.eventRepo.GetByRef(ctx, eventRef)
	if err != nil {
		return nil, fmt.Errorf("wager_service.GetEventPositions: %w", err)
	}
	positions, err := s.positionRepo.GetByUserAndEvent(ctx, userID, event.ID)
	if err != nil {
		return nil, fmt.Errorf("wager_service.GetEventPositions: %w", err)
	}
	return domain.GroupPositions(positions), nil
}

// GetDashboard returns every event the caller holds positions on, with the
// positions grouped per event. statusFilter narrows to active (tradable) or
// inactive (closed/resolved) events; empty means all.
func (s *WagerService) GetDashboard(ctx context.Context, userID uuid.UUID, statusFilter string) ([]domain.EventPositions, error) {
	var statuses []domain.EventStatus
	switch statusFilter {
	case "active":
		statuses = []domain.EventStatus{domain.StatusOpen, domain.StatusPaused}
	case "inactive":
		statuses = []domain.EventStatus{domain.StatusClosed, domain.StatusResolved}
	default:
		// unknown or empty filter: all events
	}

	ids, err := s.positionRepo.GetUserEventIDs(ctx, userID, statuses)
	if err != nil {
		return nil, fmt.Errorf("wager_service.GetDashboard: %w", err)
	}
	events, err := s.eventRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("wager_service.GetDashboard: %w", err)
	}

	result := make([]domain.EventPositions, 0, len(events))
	for _, e := range events {
		outcomes, err := s.eventRepo.GetOutcomes(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("wager_service.GetDashboard: outcomes %s: %w", e.ID, err)
		}
		positions, err := s.positionRepo.GetByUserAndEvent(ctx, userID, e.ID)
		if err != nil {
			return nil, fmt.Errorf("wager_service.GetDashboard: positions %s: %w", e.ID, err)
		}
		result = append(result, domain.EventPositions{
			Event:     e.ToView(outcomes),
			Positions: domain.GroupPositions(positions),
		})
	}
	return result, nil
}
