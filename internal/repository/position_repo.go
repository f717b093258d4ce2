package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/predyx/exchange/internal/domain"
	"github.com/shopspring/decimal"
)

// PositionRepository handles all database operations for Positions.
type PositionRepository struct {
	db *sqlx.DB
}

// NewPositionRepository creates a new PositionRepository.
func NewPositionRepository(db *sqlx.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Create inserts a new position row within an existing transaction.
func (r *PositionRepository) Create(ctx context.Context, tx *sqlx.Tx, p *domain.Position) error {
	query := `
		INSERT INTO positions
			(id, user_id, event_id, event_outcome_id, pledge, wager, loan, leverage, is_leveraged,
			 entry_probability, stop_probability, max_payout, status, created_at, updated_at)
		VALUES
			(:id, :user_id, :event_id, :event_outcome_id, :pledge, :wager, :loan, :leverage, :is_leveraged,
			 :entry_probability, :stop_probability, :max_payout, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("position_repo.Create: %w", err)
	}
	return nil
}

// GetForUpdate locks and returns the caller's open position on one outcome
// and leverage class. Returns ErrPositionNotFound when no open row exists,
// which the wager path treats as "create instead of top up".
func (r *PositionRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, userID, outcomeID uuid.UUID, isLeveraged bool) (*domain.Position, error) {
	var p domain.Position
	err := tx.GetContext(ctx, &p, `
		SELECT * FROM positions
		WHERE user_id = $1 AND event_outcome_id = $2 AND is_leveraged = $3 AND status = 'open'
		FOR UPDATE`,
		userID, outcomeID, isLeveraged)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPositionNotFound
		}
		return nil, fmt.Errorf("position_repo.GetForUpdate: %w", err)
	}
	return &p, nil
}

// GetOpen is the lock-free variant of GetForUpdate, used by quote previews.
func (r *PositionRepository) GetOpen(ctx context.Context, userID, outcomeID uuid.UUID, isLeveraged bool) (*domain.Position, error) {
	var p domain.Position
	err := r.db.GetContext(ctx, &p, `
		SELECT * FROM positions
		WHERE user_id = $1 AND event_outcome_id = $2 AND is_leveraged = $3 AND status = 'open'`,
		userID, outcomeID, isLeveraged)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPositionNotFound
		}
		return nil, fmt.Errorf("position_repo.GetOpen: %w", err)
	}
	return &p, nil
}

// UpdateAggregates persists a topped-up position's cumulative fields within
// an existing transaction.
func (r *PositionRepository) UpdateAggregates(ctx context.Context, tx *sqlx.Tx, p *domain.Position) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE positions
		SET pledge            = $1,
		    wager             = $2,
		    loan              = $3,
		    leverage          = $4,
		    entry_probability = $5,
		    stop_probability  = $6,
		    max_payout        = $7,
		    updated_at        = now()
		WHERE id = $8 AND status = 'open'`,
		p.Pledge, p.Wager, p.Loan, p.Leverage, p.EntryProbability, p.StopProbability, p.MaxPayout, p.ID)
	if err != nil {
		return fmt.Errorf("position_repo.UpdateAggregates: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrPositionNotFound
	}
	return nil
}

// Close marks a position closed with a reason and optional payout within an
// existing transaction. Already-closed rows are left untouched.
func (r *PositionRepository) Close(ctx context.Context, tx *sqlx.Tx, positionID uuid.UUID, reason domain.CloseReason, payout *decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE positions
		SET status      = 'closed',
		    last_reason = $1,
		    payout      = $2,
		    closed_at   = now(),
		    updated_at  = now()
		WHERE id = $3 AND status = 'open'`,
		reason, payout, positionID)
	if err != nil {
		return fmt.Errorf("position_repo.Close: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrPositionNotFound
	}
	return nil
}

// LockOpenByEvent locks and returns every open position on an event inside a
// transaction, in id order. Used by the margin sweep and by settlement.
func (r *PositionRepository) LockOpenByEvent(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID) ([]domain.Position, error) {
	var positions []domain.Position
	err := tx.SelectContext(ctx, &positions, `
		SELECT * FROM positions
		WHERE event_id = $1 AND status = 'open'
		ORDER BY id ASC
		FOR UPDATE`,
		eventID)
	if err != nil {
		return nil, fmt.Errorf("position_repo.LockOpenByEvent: %w", err)
	}
	return positions, nil
}

// HasEventPosition reports whether the user already holds any position on the
// event, within an existing transaction. Drives the participant counter.
func (r *PositionRepository) HasEventPosition(ctx context.Context, tx *sqlx.Tx, userID, eventID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM positions WHERE user_id = $1 AND event_id = $2)`,
		userID, eventID)
	if err != nil {
		return false, fmt.Errorf("position_repo.HasEventPosition: %w", err)
	}
	return exists, nil
}

// GetByUserAndEvent returns all of a user's positions on one event, open and
// closed, newest first.
func (r *PositionRepository) GetByUserAndEvent(ctx context.Context, userID, eventID uuid.UUID) ([]domain.Position, error) {
	var positions []domain.Position
	err := r.db.SelectContext(ctx, &positions, `
		SELECT * FROM positions
		WHERE user_id = $1 AND event_id = $2
		ORDER BY created_at DESC`,
		userID, eventID)
	if err != nil {
		return nil, fmt.Errorf("position_repo.GetByUserAndEvent: %w", err)
	}
	return positions, nil
}

// GetUserEventIDs returns the distinct events a user holds positions on,
// optionally filtered to events in the given statuses.
func (r *PositionRepository) GetUserEventIDs(ctx context.Context, userID uuid.UUID, statuses []domain.EventStatus) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if len(statuses) == 0 {
		err := r.db.SelectContext(ctx, &ids,
			`SELECT DISTINCT event_id FROM positions WHERE user_id = $1`, userID)
		if err != nil {
			return nil, fmt.Errorf("position_repo.GetUserEventIDs: %w", err)
		}
		return ids, nil
	}

	query, args, err := sqlx.In(`
		SELECT DISTINCT p.event_id
		FROM positions p
		JOIN events e ON e.id = p.event_id
		WHERE p.user_id = ? AND e.status IN (?)`,
		userID, statuses)
	if err != nil {
		return nil, fmt.Errorf("position_repo.GetUserEventIDs in: %w", err)
	}
	if err := r.db.SelectContext(ctx, &ids, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("position_repo.GetUserEventIDs: %w", err)
	}
	return ids, nil
}
