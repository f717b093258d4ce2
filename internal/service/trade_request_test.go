package service_test

import (
	"errors"
	"testing"

	"github.com/predyx/exchange/internal/domain"
	"github.com/predyx/exchange/internal/service"
	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

// A commit re-prices under row locks; the client's max_payout from the quote
// must reject any fill whose indicative payout landed below it.
func TestTradeRequestCheckSlippage(t *testing.T) {
	tests := []struct {
		name      string
		maxPayout string
		payout    string
		wantErr   error
	}{
		{"no cap set", "0", "180", nil},
		{"payout meets cap", "180", "180", nil},
		{"payout above cap", "180", "200", nil},
		{"payout fell below cap", "180", "179.9999", domain.ErrPayoutSlippage},
		{"cap above any achievable payout", "200.0001", "200", domain.ErrPayoutSlippage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := service.TradeRequest{MaxPayout: dec(t, tt.maxPayout)}
			q := &domain.Quote{IndicativePayout: dec(t, tt.payout)}
			if err := req.CheckSlippage(q); !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckSlippage() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckSlippageIsConflict(t *testing.T) {
	req := service.TradeRequest{MaxPayout: dec(t, "100")}
	q := &domain.Quote{IndicativePayout: dec(t, "99")}
	err := req.CheckSlippage(q)
	if !domain.IsConflict(err) {
		t.Errorf("slippage rejection must map to the conflict class, got %v", err)
	}
}
