package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/predyx/exchange/internal/config"
	"github.com/predyx/exchange/internal/domain"
	"github.com/predyx/exchange/internal/repository"
	"github.com/shopspring/decimal"
)

// viewCacheTTL bounds how stale the public event view may be. Quotes and
// wagers never read through this cache.
const viewCacheTTL = 500 * time.Millisecond

// ──────────────────────────────────────────────────────────────────────────────
// Request types
// ──────────────────────────────────────────────────────────────────────────────

// OutcomeInput describes one outcome at event creation. Limit fields are
// optional; zero values fall back to the configured trading defaults.
type OutcomeInput struct {
	Code                     string          `json:"code" binding:"required"`
	Name                     string          `json:"name" binding:"required"`
	MinPledge                decimal.Decimal `json:"min_pledge"`
	MaxPledge                decimal.Decimal `json:"max_pledge"`
	MaxLeverage              decimal.Decimal `json:"max_leverage"`
	MinCashProportionForPool decimal.Decimal `json:"min_cash_proportion_for_pool"`
	StartingWager            decimal.Decimal `json:"starting_wager"`
}

// CreateEventRequest carries the fields for drafting a new event.
type CreateEventRequest struct {
	Ticker   string         `json:"ticker"   binding:"required,min=2,max=20"`
	Name     string         `json:"name"     binding:"required,min=3,max=200"`
	Question string         `json:"question" binding:"required,min=3"`
	EndsAt   *time.Time     `json:"ends_at"`
	Outcomes []OutcomeInput `json:"outcomes" binding:"required,min=2,dive"`
}

// ──────────────────────────────────────────────────────────────────────────────
// EventService
// ──────────────────────────────────────────────────────────────────────────────

// EventService owns event creation, the public read model, and lifecycle
// transitions. Settlement lives in ResolutionService.
type EventService struct {
	eventRepo *repository.EventRepository
	cfg       *config.Config

	mu    sync.Mutex
	cache map[string]cachedView
}

type cachedView struct {
	view    domain.EventView
	fetched time.Time
}

// NewEventService creates an EventService.
func NewEventService(eventRepo *repository.EventRepository, cfg *config.Config) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		cfg:       cfg,
		cache:     make(map[string]cachedView),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Creation
// ──────────────────────────────────────────────────────────────────────────────

// CreateEvent drafts a new event with its outcomes. Each outcome pool is
// seeded with the starting wager so probabilities are defined from the first
// quote. The event starts in StatusCreated and is invisible to traders until
// opened.
func (s *EventService) CreateEvent(ctx context.Context, req CreateEventRequest) (*domain.EventView, error) {
	now := time.Now().UTC()
	event := &domain.Event{
		ID:        uuid.New(),
		Code:      s.generateCode(ctx),
		Ticker:    req.Ticker,
		Name:      req.Name,
		Question:  req.Question,
		Status:    domain.StatusCreated,
		Volume:    decimal.Zero,
		EndsAt:    req.EndsAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("event_service.CreateEvent: %w", err)
	}

	outcomes := make([]domain.Outcome, 0, len(req.Outcomes))
	for _, in := range req.Outcomes {
		o := s.buildOutcome(event.ID, in, now)
		if err := s.eventRepo.CreateOutcome(ctx, &o); err != nil {
			return nil, fmt.Errorf("event_service.CreateEvent: outcome %s: %w", in.Code, err)
		}
		outcomes = append(outcomes, o)
	}

	view := event.ToView(outcomes)
	return &view, nil
}

// AddOutcome appends an outcome to a drafted event.
func (s *EventService) AddOutcome(ctx context.Context, ref string, in OutcomeInput) (*domain.Outcome, error) {
	event, err := s.eventRepo.GetByRef(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("event_service.AddOutcome: %w", err)
	}
	if event.Status != domain.StatusCreated {
		return nil, domain.ErrInvalidTransition
	}

	o := s.buildOutcome(event.ID, in, time.Now().UTC())
	if err := s.eventRepo.CreateOutcome(ctx, &o); err != nil {
		return nil, fmt.Errorf("event_service.AddOutcome: %w", err)
	}
	return &o, nil
}

// buildOutcome applies the configured trading defaults to unset limits.
func (s *EventService) buildOutcome(eventID uuid.UUID, in OutcomeInput, now time.Time) domain.Outcome {
	minPledge := in.MinPledge
	if minPledge.IsZero() {
		minPledge = decimal.NewFromFloat(s.cfg.Trading.MinPledge)
	}
	maxPledge := in.MaxPledge
	if maxPledge.IsZero() {
		maxPledge = decimal.NewFromFloat(s.cfg.Trading.MaxPledge)
	}
	maxLeverage := in.MaxLeverage
	if maxLeverage.IsZero() {
		maxLeverage = decimal.NewFromFloat(s.cfg.Trading.MaxLeverage)
	}
	minCash := in.MinCashProportionForPool
	if minCash.IsZero() {
		minCash = decimal.NewFromFloat(s.cfg.Trading.MinCashProportionForPool)
	}
	seed := in.StartingWager
	if seed.IsZero() {
		seed = decimal.NewFromFloat(s.cfg.Trading.StartingWager)
	}

	return domain.Outcome{
		ID:                       uuid.New(),
		EventID:                  eventID,
		Code:                     in.Code,
		Name:                     in.Name,
		TotalWager:               seed,
		TotalPledge:              seed.Mul(minCash).RoundDown(4),
		MinPledge:                minPledge,
		MaxPledge:                maxPledge,
		MaxLeverage:              maxLeverage,
		MinCashProportionForPool: minCash,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
}

// generateCode produces the public event code. Uniqueness is enforced by the
// events.code constraint; collisions across a 6-digit space are retried once.
// A lookup failure other than not-found falls through to the time-based code
// rather than claiming the candidate is free.
func (s *EventService) generateCode(ctx context.Context) string {
	for i := 0; i < 2; i++ {
		code := fmt.Sprintf("EVT-%06d", rand.IntN(1_000_000))
		if _, err := s.eventRepo.GetByRef(ctx, code); errors.Is(err, domain.ErrEventNotFound) {
			return code
		}
	}
	return fmt.Sprintf("EVT-%d", time.Now().UnixNano()%1_000_000_000)
}

// ──────────────────────────────────────────────────────────────────────────────
// Read model
// ──────────────────────────────────────────────────────────────────────────────

// GetView returns the public event view by UUID or code, served from a short
// cache to absorb read bursts.
func (s *EventService) GetView(ctx context.Context, ref string) (*domain.EventView, error) {
	s.mu.Lock()
	if c, ok := s.cache[ref]; ok && time.Since(c.fetched) < viewCacheTTL {
		view := c.view
		s.mu.Unlock()
		return &view, nil
	}
	s.mu.Unlock()

	view, err := s.loadView(ctx, ref)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[ref] = cachedView{view: *view, fetched: time.Now()}
	s.mu.Unlock()
	return view, nil
}

// loadView assembles the view straight from the database.
func (s *EventService) loadView(ctx context.Context, ref string) (*domain.EventView, error) {
	event, err := s.eventRepo.GetByRef(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("event_service.GetView: %w", err)
	}
	outcomes, err := s.eventRepo.GetOutcomes(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("event_service.GetView: %w", err)
	}
	view := event.ToView(outcomes)
	return &view, nil
}

// List returns paginated events with their outcomes for the admin surface.
func (s *EventService) List(ctx context.Context, limit, offset int) ([]domain.EventView, int, error) {
	events, total, err := s.eventRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("event_service.List: %w", err)
	}
	views := make([]domain.EventView, 0, len(events))
	for _, e := range events {
		outcomes, err := s.eventRepo.GetOutcomes(ctx, e.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("event_service.List: outcomes %s: %w", e.ID, err)
		}
		views = append(views, e.ToView(outcomes))
	}
	return views, total, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────────────────────────────────

// SetStatus moves an event to the target status, consulting the transition
// table first so invalid moves surface as conflicts without touching the row.
func (s *EventService) SetStatus(ctx context.Context, ref string, target domain.EventStatus) error {
	event, err := s.eventRepo.GetByRef(ctx, ref)
	if err != nil {
		return fmt.Errorf("event_service.SetStatus: %w", err)
	}
	if !event.Status.CanTransition(target) {
		return domain.ErrInvalidTransition
	}
	if err := s.eventRepo.Transition(ctx, event.ID, event.Status, target); err != nil {
		return fmt.Errorf("event_service.SetStatus: %w", err)
	}
	s.invalidate(event)
	return nil
}

// Open makes an event tradable.
func (s *EventService) Open(ctx context.Context, ref string) error {
	return s.SetStatus(ctx, ref, domain.StatusOpen)
}

// Pause halts trading without closing the window.
func (s *EventService) Pause(ctx context.Context, ref string) error {
	return s.SetStatus(ctx, ref, domain.StatusPaused)
}

// Close ends the trading window; the event awaits resolution.
func (s *EventService) Close(ctx context.Context, ref string) error {
	return s.SetStatus(ctx, ref, domain.StatusClosed)
}

// AutoCloseExpired closes every tradable event whose deadline has passed.
// Called by the scheduler; a single failing event does not abort the others.
func (s *EventService) AutoCloseExpired(ctx context.Context) error {
	events, err := s.eventRepo.GetExpiredOpen(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("event_service.AutoCloseExpired: %w", err)
	}
	for _, e := range events {
		if err := s.eventRepo.Transition(ctx, e.ID, e.Status, domain.StatusClosed); err != nil {
			log.Printf("[scheduler] ERROR auto-closing event %s: %v", e.Code, err)
			continue
		}
		s.invalidate(e)
		log.Printf("[scheduler] auto-closed event %s (deadline %s)", e.Code, e.EndsAt)
	}
	return nil
}

// invalidate drops both cache keys for an event after a mutation.
func (s *EventService) invalidate(e *domain.Event) {
	s.mu.Lock()
	delete(s.cache, e.ID.String())
	delete(s.cache, e.Code)
	s.mu.Unlock()
}
