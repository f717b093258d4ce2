package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func walletSet(topup, profit, bonus string) WalletSet {
	return WalletSet{
		WalletTopup:  {ID: uuid.New(), Kind: WalletTopup, Balance: dec(topup)},
		WalletProfit: {ID: uuid.New(), Kind: WalletProfit, Balance: dec(profit)},
		WalletBonus:  {ID: uuid.New(), Kind: WalletBonus, Balance: dec(bonus)},
	}
}

func legAmounts(legs []DebitLeg) map[WalletKind]decimal.Decimal {
	out := make(map[WalletKind]decimal.Decimal, len(legs))
	for _, l := range legs {
		out[l.Kind] = l.Amount
	}
	return out
}

func TestPlanDebitWaterfall(t *testing.T) {
	tests := []struct {
		name    string
		topup   string
		profit  string
		bonus   string
		amount  string
		want    map[WalletKind]string
		wantErr error
	}{
		{
			name: "topup alone covers", topup: "100", profit: "50", bonus: "10",
			amount: "80",
			want:   map[WalletKind]string{WalletTopup: "80"},
		},
		{
			name: "spills into profit", topup: "30", profit: "50", bonus: "10",
			amount: "70",
			want:   map[WalletKind]string{WalletTopup: "30", WalletProfit: "40"},
		},
		{
			name: "spills into bonus", topup: "30", profit: "20", bonus: "10",
			amount: "55",
			want:   map[WalletKind]string{WalletTopup: "30", WalletProfit: "20", WalletBonus: "5"},
		},
		{
			name: "bonus capped at 10 per wager", topup: "0", profit: "0", bonus: "50",
			amount: "10",
			want:   map[WalletKind]string{WalletBonus: "10"},
		},
		{
			name: "bonus beyond cap unusable", topup: "0", profit: "0", bonus: "50",
			amount:  "11",
			wantErr: ErrInsufficientFunds,
		},
		{
			name: "total short", topup: "5", profit: "5", bonus: "5",
			amount:  "20",
			wantErr: ErrInsufficientFunds,
		},
		{
			name: "zero amount rejected", topup: "100", profit: "0", bonus: "0",
			amount:  "0",
			wantErr: ErrInvalidPledge,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := walletSet(tt.topup, tt.profit, tt.bonus)
			legs, err := ws.PlanDebit(dec(tt.amount))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("PlanDebit error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("PlanDebit: %v", err)
			}
			got := legAmounts(legs)
			if len(got) != len(tt.want) {
				t.Fatalf("leg count = %d, want %d", len(got), len(tt.want))
			}
			total := decimal.Zero
			for kind, amount := range tt.want {
				if !got[kind].Equal(dec(amount)) {
					t.Errorf("%s leg = %s, want %s", kind, got[kind], amount)
				}
			}
			for _, l := range legs {
				total = total.Add(l.Amount)
			}
			if !total.Equal(dec(tt.amount)) {
				t.Errorf("legs sum to %s, want %s", total, tt.amount)
			}
		})
	}
}

func TestPlanDebitOrderIsDeterministic(t *testing.T) {
	ws := walletSet("10", "10", "10")
	legs, err := ws.PlanDebit(dec("25"))
	if err != nil {
		t.Fatalf("PlanDebit: %v", err)
	}
	wantOrder := []WalletKind{WalletTopup, WalletProfit, WalletBonus}
	if len(legs) != len(wantOrder) {
		t.Fatalf("leg count = %d, want %d", len(legs), len(wantOrder))
	}
	for i, kind := range wantOrder {
		if legs[i].Kind != kind {
			t.Errorf("leg %d = %s, want %s", i, legs[i].Kind, kind)
		}
	}
}

func TestWalletSetContains(t *testing.T) {
	ws := walletSet("100", "0", "0")
	if !ws.Contains(ws[WalletTopup].ID) {
		t.Error("set must contain its own topup wallet id")
	}
	if ws.Contains(uuid.New()) {
		t.Error("set must not contain a foreign wallet id")
	}
}
