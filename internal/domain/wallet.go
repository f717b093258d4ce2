package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Wallet kinds
// ──────────────────────────────────────────────────────────────────────────────

// WalletKind identifies one of the three balances every user holds.
type WalletKind string

const (
	WalletTopup  WalletKind = "topup"  // deposited funds, spent first
	WalletProfit WalletKind = "profit" // winnings, spent second
	WalletBonus  WalletKind = "bonus"  // promotional funds, spent last
)

// DebitOrder is the waterfall consumption order for funding a pledge.
var DebitOrder = []WalletKind{WalletTopup, WalletProfit, WalletBonus}

// BonusPerWagerCap limits how much bonus balance a single wager may consume.
var BonusPerWagerCap = decimal.NewFromInt(10)

// ──────────────────────────────────────────────────────────────────────────────
// Wallet
// ──────────────────────────────────────────────────────────────────────────────

// Wallet holds one of a user's balances. Users have exactly one wallet per kind.
type Wallet struct {
	ID        uuid.UUID       `json:"id"         db:"id"`
	UserID    uuid.UUID       `json:"user_id"    db:"user_id"`
	Kind      WalletKind      `json:"kind"       db:"kind"`
	Balance   decimal.Decimal `json:"balance"    db:"balance"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// WalletSet is a user's three wallets keyed by kind, as loaded for a debit.
type WalletSet map[WalletKind]*Wallet

// Total returns the combined balance across all wallets in the set.
func (ws WalletSet) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, w := range ws {
		sum = sum.Add(w.Balance)
	}
	return sum
}

// Contains reports whether a wallet with the given id belongs to the set.
func (ws WalletSet) Contains(id uuid.UUID) bool {
	for _, w := range ws {
		if w.ID == id {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────────────────────────────────────
// Debit waterfall
// ──────────────────────────────────────────────────────────────────────────────

// DebitLeg is one wallet's contribution to funding a pledge.
type DebitLeg struct {
	WalletID uuid.UUID
	Kind     WalletKind
	Amount   decimal.Decimal
}

// PlanDebit allocates amount across the wallet set in waterfall order
// (topup, then profit, then bonus), drawing at most BonusPerWagerCap from
// the bonus wallet. It returns the per-wallet legs or ErrInsufficientFunds
// when the spendable total cannot cover the amount. The plan is pure; the
// repository applies it atomically.
func (ws WalletSet) PlanDebit(amount decimal.Decimal) ([]DebitLeg, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidPledge
	}
	remaining := amount
	legs := make([]DebitLeg, 0, len(DebitOrder))
	for _, kind := range DebitOrder {
		w, ok := ws[kind]
		if !ok || !w.Balance.IsPositive() {
			continue
		}
		available := w.Balance
		if kind == WalletBonus && available.GreaterThan(BonusPerWagerCap) {
			available = BonusPerWagerCap
		}
		take := decimal.Min(available, remaining)
		if !take.IsPositive() {
			continue
		}
		legs = append(legs, DebitLeg{WalletID: w.ID, Kind: kind, Amount: take})
		remaining = remaining.Sub(take)
		if remaining.IsZero() {
			return legs, nil
		}
	}
	return nil, ErrInsufficientFunds
}

// ──────────────────────────────────────────────────────────────────────────────
// Transaction — audit trail
// ──────────────────────────────────────────────────────────────────────────────

// TxType enumerates wallet transaction types for auditing.
type TxType string

const (
	TxSeed       TxType = "seed"        // initial balance on account creation
	TxPledge     TxType = "pledge"      // debit funding a wager
	TxPayout     TxType = "payout"      // resolution credit to profit wallet
	TxForfeit    TxType = "forfeit"     // margin-call / losing-side record
)

// Transaction is an immutable audit record for every wallet balance change.
type Transaction struct {
	ID            uuid.UUID       `json:"id"             db:"id"`
	WalletID      uuid.UUID       `json:"wallet_id"      db:"wallet_id"`
	Type          TxType          `json:"type"           db:"type"`
	Amount        decimal.Decimal `json:"amount"         db:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before" db:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"  db:"balance_after"`
	RefID         *uuid.UUID      `json:"ref_id"         db:"ref_id"` // position or event ID
	Description   string          `json:"description"    db:"description"`
	CreatedAt     time.Time       `json:"created_at"     db:"created_at"`
}
