package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/predyx/exchange/internal/domain"
	"github.com/shopspring/decimal"
)

// EventRepository handles all database operations for Events and their Outcomes.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// ──────────────────────────────────────────────────────────────────────────────
// Events
// ──────────────────────────────────────────────────────────────────────────────

// Create inserts a new event row. Returns ErrEventExists when the ticker or
// name is already taken.
func (r *EventRepository) Create(ctx context.Context, e *domain.Event) error {
	var taken bool
	err := r.db.GetContext(ctx, &taken,
		`SELECT EXISTS (SELECT 1 FROM events WHERE ticker = $1 OR name = $2)`,
		e.Ticker, e.Name)
	if err != nil {
		return fmt.Errorf("event_repo.Create check: %w", err)
	}
	if taken {
		return domain.ErrEventExists
	}

	query := `
		INSERT INTO events
			(id, code, ticker, name, question, status, volume, participants_count, ends_at, created_at, updated_at)
		VALUES
			(:id, :code, :ticker, :name, :question, :status, :volume, :participants_count, :ends_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, e); err != nil {
		return fmt.Errorf("event_repo.Create: %w", err)
	}
	return nil
}

// GetByID fetches an event by its primary key.
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	var e domain.Event
	err := r.db.GetContext(ctx, &e, `SELECT * FROM events WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("event_repo.GetByID: %w", err)
	}
	return &e, nil
}

// GetByRef fetches an event by UUID or, failing that, by its public code.
func (r *EventRepository) GetByRef(ctx context.Context, ref string) (*domain.Event, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return r.GetByID(ctx, id)
	}
	var e domain.Event
	err := r.db.GetContext(ctx, &e, `SELECT * FROM events WHERE code = $1`, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("event_repo.GetByRef: %w", err)
	}
	return &e, nil
}

// List returns a paginated slice of events in descending creation order.
// Returns (events, totalCount, error).
func (r *EventRepository) List(ctx context.Context, limit, offset int) ([]*domain.Event, int, error) {
	var events []*domain.Event
	var total int

	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM events`); err != nil {
		return nil, 0, fmt.Errorf("event_repo.List count: %w", err)
	}
	if err := r.db.SelectContext(ctx, &events,
		`SELECT * FROM events ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset); err != nil {
		return nil, 0, fmt.Errorf("event_repo.List select: %w", err)
	}
	return events, total, nil
}

// GetByIDs fetches the given events in one round trip.
func (r *EventRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM events WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("event_repo.GetByIDs in: %w", err)
	}
	var events []*domain.Event
	if err := r.db.SelectContext(ctx, &events, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("event_repo.GetByIDs: %w", err)
	}
	return events, nil
}

// GetExpiredOpen returns events still tradable whose deadline has passed,
// i.e. due for auto-close by the scheduler.
func (r *EventRepository) GetExpiredOpen(ctx context.Context, now time.Time) ([]*domain.Event, error) {
	var events []*domain.Event
	err := r.db.SelectContext(ctx, &events,
		`SELECT * FROM events
		 WHERE status IN ('open','paused') AND ends_at IS NOT NULL AND ends_at <= $1
		 ORDER BY ends_at ASC`,
		now)
	if err != nil {
		return nil, fmt.Errorf("event_repo.GetExpiredOpen: %w", err)
	}
	return events, nil
}

// Transition moves an event from one status to another with a guarded UPDATE,
// so concurrent or repeated calls conflict instead of double-applying.
// Returns ErrInvalidTransition when the event is no longer in `from`.
func (r *EventRepository) Transition(ctx context.Context, id uuid.UUID, from, to domain.EventStatus) error {
	var stampCol string
	switch to {
	case domain.StatusOpen:
		stampCol = "opened_at"
	case domain.StatusClosed:
		stampCol = "closed_at"
	case domain.StatusResolved:
		stampCol = "resolved_at"
	}

	query := `UPDATE events SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`
	if stampCol != "" {
		query = fmt.Sprintf(
			`UPDATE events SET status = $1, %s = now(), updated_at = now() WHERE id = $2 AND status = $3`,
			stampCol)
	}
	res, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("event_repo.Transition: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// MarkResolved finalises the event inside the settlement transaction.
func (r *EventRepository) MarkResolved(ctx context.Context, tx *sqlx.Tx, id, winningOutcomeID uuid.UUID, endsAt *time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE events
		SET status             = 'resolved',
		    winning_outcome_id = $1,
		    ends_at            = COALESCE($2, ends_at),
		    resolved_at        = now(),
		    updated_at         = now()
		WHERE id = $3 AND status = 'closed'`,
		winningOutcomeID, endsAt, id)
	if err != nil {
		return fmt.Errorf("event_repo.MarkResolved: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Outcomes
// ──────────────────────────────────────────────────────────────────────────────

// CreateOutcome inserts a new outcome row for an event.
func (r *EventRepository) CreateOutcome(ctx context.Context, o *domain.Outcome) error {
	query := `
		INSERT INTO event_outcomes
			(id, event_id, code, name, total_pledge, total_wager, min_pledge, max_pledge,
			 max_leverage, min_cash_proportion_for_pool, created_at, updated_at)
		VALUES
			(:id, :event_id, :code, :name, :total_pledge, :total_wager, :min_pledge, :max_pledge,
			 :max_leverage, :min_cash_proportion_for_pool, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, o); err != nil {
		return fmt.Errorf("event_repo.CreateOutcome: %w", err)
	}
	return nil
}

// GetOutcomes returns an event's outcomes in creation order.
func (r *EventRepository) GetOutcomes(ctx context.Context, eventID uuid.UUID) ([]domain.Outcome, error) {
	var outcomes []domain.Outcome
	err := r.db.SelectContext(ctx, &outcomes,
		`SELECT * FROM event_outcomes WHERE event_id = $1 ORDER BY created_at ASC, id ASC`,
		eventID)
	if err != nil {
		return nil, fmt.Errorf("event_repo.GetOutcomes: %w", err)
	}
	return outcomes, nil
}

// GetOutcome fetches one outcome and checks it belongs to the event.
func (r *EventRepository) GetOutcome(ctx context.Context, eventID, outcomeID uuid.UUID) (*domain.Outcome, error) {
	var o domain.Outcome
	err := r.db.GetContext(ctx, &o,
		`SELECT * FROM event_outcomes WHERE id = $1 AND event_id = $2`, outcomeID, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOutcomeNotFound
		}
		return nil, fmt.Errorf("event_repo.GetOutcome: %w", err)
	}
	return &o, nil
}

// LockOutcomes locks and returns all outcome rows of an event inside a
// transaction. Rows are locked in id order so concurrent wagers on the same
// event serialize instead of deadlocking.
func (r *EventRepository) LockOutcomes(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID) ([]domain.Outcome, error) {
	var outcomes []domain.Outcome
	err := tx.SelectContext(ctx, &outcomes,
		`SELECT * FROM event_outcomes WHERE event_id = $1 ORDER BY id ASC FOR UPDATE`,
		eventID)
	if err != nil {
		return nil, fmt.Errorf("event_repo.LockOutcomes: %w", err)
	}
	return outcomes, nil
}

// ApplyFill adds an executed wager to the outcome aggregates and the event
// volume within an existing transaction. Caller must already hold the row
// locks via LockOutcomes.
func (r *EventRepository) ApplyFill(ctx context.Context, tx *sqlx.Tx, eventID, outcomeID uuid.UUID, pledge, wager decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE event_outcomes
		SET total_pledge = total_pledge + $1,
		    total_wager  = total_wager  + $2,
		    updated_at   = now()
		WHERE id = $3 AND event_id = $4`,
		pledge, wager, outcomeID, eventID)
	if err != nil {
		return fmt.Errorf("event_repo.ApplyFill outcome: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrOutcomeNotFound
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE events SET volume = volume + $1, updated_at = now() WHERE id = $2`,
		wager, eventID)
	if err != nil {
		return fmt.Errorf("event_repo.ApplyFill volume: %w", err)
	}
	return nil
}

// IncrementParticipants bumps the event participant counter within an
// existing transaction (first position of a user on the event).
func (r *EventRepository) IncrementParticipants(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE events SET participants_count = participants_count + 1, updated_at = now() WHERE id = $1`,
		eventID)
	if err != nil {
		return fmt.Errorf("event_repo.IncrementParticipants: %w", err)
	}
	return nil
}

// SetWinners flags the winning outcome and clears the rest inside the
// settlement transaction.
func (r *EventRepository) SetWinners(ctx context.Context, tx *sqlx.Tx, eventID, winningOutcomeID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE event_outcomes
		SET is_winner = (id = $1), updated_at = now()
		WHERE event_id = $2`,
		winningOutcomeID, eventID)
	if err != nil {
		return fmt.Errorf("event_repo.SetWinners: %w", err)
	}
	return nil
}
