package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/predyx/exchange/internal/domain"
	"github.com/shopspring/decimal"
)

// WalletRepository handles all database operations for Wallets and Transactions.
type WalletRepository struct {
	db *sqlx.DB
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// CreateSet inserts the three wallet rows for a new user within an existing
// transaction, seeded with the given starting balances.
func (r *WalletRepository) CreateSet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, seeds map[domain.WalletKind]decimal.Decimal) error {
	now := time.Now().UTC()
	for _, kind := range domain.DebitOrder {
		w := domain.Wallet{
			ID:        uuid.New(),
			UserID:    userID,
			Kind:      kind,
			Balance:   seeds[kind],
			CreatedAt: now,
			UpdatedAt: now,
		}
		query := `
			INSERT INTO wallets (id, user_id, kind, balance, created_at, updated_at)
			VALUES (:id, :user_id, :kind, :balance, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, w); err != nil {
			return fmt.Errorf("wallet_repo.CreateSet %s: %w", kind, err)
		}
		if w.Balance.IsPositive() {
			txn := domain.Transaction{
				ID:           uuid.New(),
				WalletID:     w.ID,
				Type:         domain.TxSeed,
				Amount:       w.Balance,
				BalanceAfter: w.Balance,
				Description:  "initial balance",
				CreatedAt:    now,
			}
			if err := r.LogTransaction(ctx, tx, &txn); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetSet fetches a user's three wallets keyed by kind.
// Returns ErrWalletNotFound when the user has no wallet rows.
func (r *WalletRepository) GetSet(ctx context.Context, userID uuid.UUID) (domain.WalletSet, error) {
	var rows []domain.Wallet
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM wallets WHERE user_id = $1 ORDER BY kind ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("wallet_repo.GetSet: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrWalletNotFound
	}
	set := make(domain.WalletSet, len(rows))
	for i := range rows {
		set[rows[i].Kind] = &rows[i]
	}
	return set, nil
}

// GetSetForUpdate locks and returns a user's wallets inside a transaction.
// Rows are locked in kind order so concurrent debits serialize instead of
// deadlocking.
func (r *WalletRepository) GetSetForUpdate(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (domain.WalletSet, error) {
	var rows []domain.Wallet
	err := tx.SelectContext(ctx, &rows,
		`SELECT * FROM wallets WHERE user_id = $1 ORDER BY kind ASC FOR UPDATE`, userID)
	if err != nil {
		return nil, fmt.Errorf("wallet_repo.GetSetForUpdate: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrWalletNotFound
	}
	set := make(domain.WalletSet, len(rows))
	for i := range rows {
		set[rows[i].Kind] = &rows[i]
	}
	return set, nil
}

// ApplyDebit executes a planned waterfall debit within an existing
// transaction, writing one balance update and one audit record per leg.
// Caller must already hold the row locks via GetSetForUpdate; the guarded
// UPDATE is a second line of defence against overdrawing.
func (r *WalletRepository) ApplyDebit(ctx context.Context, tx *sqlx.Tx, set domain.WalletSet, legs []domain.DebitLeg, refID uuid.UUID, description string) error {
	for _, leg := range legs {
		res, err := tx.ExecContext(ctx,
			`UPDATE wallets SET balance = balance - $1, updated_at = now()
			 WHERE id = $2 AND balance >= $1`,
			leg.Amount, leg.WalletID)
		if err != nil {
			return fmt.Errorf("wallet_repo.ApplyDebit %s: %w", leg.Kind, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrInsufficientFunds
		}

		before := set[leg.Kind].Balance
		ref := refID
		txn := domain.Transaction{
			ID:            uuid.New(),
			WalletID:      leg.WalletID,
			Type:          domain.TxPledge,
			Amount:        leg.Amount.Neg(),
			BalanceBefore: before,
			BalanceAfter:  before.Sub(leg.Amount),
			RefID:         &ref,
			Description:   description,
			CreatedAt:     time.Now().UTC(),
		}
		if err := r.LogTransaction(ctx, tx, &txn); err != nil {
			return err
		}
	}
	return nil
}

// Credit adds amount to one of a user's wallets within an existing
// transaction and writes the audit record. Used for resolution payouts.
func (r *WalletRepository) Credit(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, kind domain.WalletKind, amount decimal.Decimal, txType domain.TxType, refID uuid.UUID, description string) error {
	var w domain.Wallet
	err := tx.GetContext(ctx, &w,
		`SELECT * FROM wallets WHERE user_id = $1 AND kind = $2 FOR UPDATE`, userID, kind)
	if err != nil {
		return fmt.Errorf("wallet_repo.Credit lock: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE wallets SET balance = balance + $1, updated_at = now() WHERE id = $2`,
		amount, w.ID)
	if err != nil {
		return fmt.Errorf("wallet_repo.Credit update: %w", err)
	}

	ref := refID
	txn := domain.Transaction{
		ID:            uuid.New(),
		WalletID:      w.ID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: w.Balance,
		BalanceAfter:  w.Balance.Add(amount),
		RefID:         &ref,
		Description:   description,
		CreatedAt:     time.Now().UTC(),
	}
	return r.LogTransaction(ctx, tx, &txn)
}

// LogTransaction inserts an audit record into wallet_transactions inside a transaction.
func (r *WalletRepository) LogTransaction(ctx context.Context, tx *sqlx.Tx, txn *domain.Transaction) error {
	query := `
		INSERT INTO wallet_transactions
			(id, wallet_id, type, amount, balance_before, balance_after, ref_id, description, created_at)
		VALUES
			(:id, :wallet_id, :type, :amount, :balance_before, :balance_after, :ref_id, :description, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, txn); err != nil {
		return fmt.Errorf("wallet_repo.LogTransaction: %w", err)
	}
	return nil
}

// GetTransactions returns paginated transaction history across a user's wallets.
func (r *WalletRepository) GetTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction
	err := r.db.SelectContext(ctx, &txns, `
		SELECT wt.*
		FROM wallet_transactions wt
		JOIN wallets w ON w.id = wt.wallet_id
		WHERE w.user_id = $1
		ORDER BY wt.created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("wallet_repo.GetTransactions: %w", err)
	}
	return txns, nil
}
