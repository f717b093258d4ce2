package service

import (
	"context"
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

// ResolutionService settles events: flags the winning outcome, runs the
// pari-mutuel split over open positions, credits winners' profit wallets,
// and finalises the event. The whole settlement is one transaction.
type ResolutionService struct {
	db           *sqlx.DB
	eventRepo    *repository.EventRepository
	positionRepo *repository.PositionRepository
	walletRepo   *repository.WalletRepository
	cfg          *config.Config
	broadcaster  Broadcaster
}

// NewResolutionService builds a ResolutionService.
func NewResolutionService(
	db *sqlx.DB,
	eventRepo *repository.EventRepository,
	positionRepo *repository.PositionRepository,
	walletRepo *repository.WalletRepository,
	cfg *config.Config,
) *ResolutionService {
	return &ResolutionService{
		db:           db,
		eventRepo:    eventRepo,
		positionRepo: positionRepo,
		walletRepo:   walletRepo,
		cfg:          cfg,
	}
}

// SetBroadcaster injects the WS hub dependency post-construction.
func (s *ResolutionService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// ──────────────────────────────────────────────────────────────────────────────
// Resolve
// ──────────────────────────────────────────────────────────────────────────────

// ResolveRequest carries the admin settlement instruction.
type ResolveRequest struct {
	EventOutcomeID uuid.UUID  `json:"event_outcome_id" binding:"required"`
	EndsAt         *time.Time `json:"ends_at"          binding:"required"`
	DryRun         bool       `json:"dry_run"`
}

// Resolve settles a closed event on the given winning outcome. With DryRun
// set it validates the instruction and commits nothing; the returned bool is
// true only for that validated dry run.
//
// Winners' payouts (pledge back plus their taxed share of the losing pledges)
// land in the profit wallet. Losing open positions close as LOSS; positions
// stopped out earlier keep MARGINCALLED and take no part in the split.
func (s *ResolutionService) Resolve(ctx context.Context, ref string, req ResolveRequest) (bool, error) {
	event, err := s.eventRepo.GetByRef(ctx, ref)
	if err != nil {
		return false, fmt.Errorf("resolution_service.Resolve: %w", err)
	}
	if !event.Status.CanTransition(domain.StatusResolved) {
		return false, domain.ErrInvalidTransition
	}
	if _, err = s.eventRepo.GetOutcome(ctx, event.ID, req.EventOutcomeID); err != nil {
		return false, fmt.Errorf("resolution_service.Resolve: %w", err)
	}

	if req.DryRun {
		return true, nil
	}

	// ── Atomic settlement transaction ────────────────────────────────────────
	tx, txErr := s.db.BeginTxx(ctx, nil)
	if txErr != nil {
		return false, fmt.Errorf("resolution_service.Resolve: begin tx: %w", txErr)
	}
	defer func() {
		if txErr != nil {
			_ = tx.Rollback()
		}
	}()

	positions, txErr := s.positionRepo.LockOpenByEvent(ctx, tx, event.ID)
	if txErr != nil {
		return false, fmt.Errorf("resolution_service.Resolve: lock positions: %w", txErr)
	}

	var winners, losers []domain.Position
	for _, p := range positions {
		if p.EventOutcomeID == req.EventOutcomeID {
			winners = append(winners, p)
		} else {
			losers = append(losers, p)
		}
	}

	taxRate := decimal.NewFromFloat(s.cfg.Trading.PayoutTaxRate)
	entries := domain.ComputeSettlement(winners, losers, taxRate)

	// --- Pay out winners ----------------------------------------------------
	for _, e := range entries {
		if txErr = s.walletRepo.Credit(ctx, tx, e.UserID, domain.WalletProfit, e.Payout,
			domain.TxPayout, e.PositionID,
			fmt.Sprintf("payout on %s", event.Code)); txErr != nil {
			return false, fmt.Errorf("resolution_service.Resolve: credit %s: %w", e.PositionID, txErr)
		}
		payout := e.Payout
		if txErr = s.positionRepo.Close(ctx, tx, e.PositionID, domain.ReasonWin, &payout); txErr != nil {
			return false, fmt.Errorf("resolution_service.Resolve: close winner %s: %w", e.PositionID, txErr)
		}
	}

	// --- Close losers -------------------------------------------------------
	for _, p := range losers {
		if txErr = s.positionRepo.Close(ctx, tx, p.ID, domain.ReasonLoss, nil); txErr != nil {
			return false, fmt.Errorf("resolution_service.Resolve: close loser %s: %w", p.ID, txErr)
		}
	}

	// --- Finalise the event -------------------------------------------------
	if txErr = s.eventRepo.SetWinners(ctx, tx, event.ID, req.EventOutcomeID); txErr != nil {
		return false, fmt.Errorf("resolution_service.Resolve: set winners: %w", txErr)
	}
	if txErr = s.eventRepo.MarkResolved(ctx, tx, event.ID, req.EventOutcomeID, req.EndsAt); txErr != nil {
		return false, fmt.Errorf("resolution_service.Resolve: mark resolved: %w", txErr)
	}

	if txErr = tx.Commit(); txErr != nil {
		return false, fmt.Errorf("resolution_service.Resolve: commit: %w", txErr)
	}

	log.Printf("[resolution] event %s resolved: winner=%s winners=%d losers=%d",
		event.Code, req.EventOutcomeID, len(entries), len(losers))

	go s.postResolveAsync(event.ID)
	return false, nil
}

// postResolveAsync broadcasts the final event state after settlement.
func (s *ResolutionService) postResolveAsync(eventID uuid.UUID) {
	if s.broadcaster == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		log.Printf("[resolution] WARN broadcast fetch event %s: %v", eventID, err)
		return
	}
	outcomes, err := s.eventRepo.GetOutcomes(ctx, eventID)
	if err != nil {
		log.Printf("[resolution] WARN broadcast fetch outcomes %s: %v", eventID, err)
		return
	}
	view := event.ToView(outcomes)
	s.broadcaster.BroadcastEventUpdate(&view)
}
