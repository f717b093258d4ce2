package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func openPosition(pledge, wager string) Position {
	return Position{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Pledge: dec(pledge),
		Wager:  dec(wager),
		Status: PositionOpen,
	}
}

func TestComputeSettlementSplitsLosingPool(t *testing.T) {
	winners := []Position{
		openPosition("100", "300"), // 75% of winning wagers
		openPosition("50", "100"),  // 25%
	}
	losers := []Position{
		openPosition("200", "400"),
	}

	entries := ComputeSettlement(winners, losers, dec("0.02"))
	if len(entries) != 2 {
		t.Fatalf("entry count = %d, want 2", len(entries))
	}

	// distributable = 200 × 0.98 = 196
	if want := dec("100").Add(dec("147")); !entries[0].Payout.Equal(want) {
		t.Errorf("winner 0 payout = %s, want %s", entries[0].Payout, want)
	}
	if want := dec("50").Add(dec("49")); !entries[1].Payout.Equal(want) {
		t.Errorf("winner 1 payout = %s, want %s", entries[1].Payout, want)
	}
}

func TestComputeSettlementNoLosers(t *testing.T) {
	winners := []Position{openPosition("100", "200")}

	entries := ComputeSettlement(winners, nil, dec("0.02"))
	if len(entries) != 1 {
		t.Fatalf("entry count = %d, want 1", len(entries))
	}
	if !entries[0].Payout.Equal(dec("100")) {
		t.Errorf("payout with empty losing pool = %s, want the pledge back", entries[0].Payout)
	}
}

func TestComputeSettlementSkipsMarginCalled(t *testing.T) {
	reason := ReasonMarginCalled
	stopped := openPosition("100", "500")
	stopped.Status = PositionClosed
	stopped.LastReason = &reason

	winners := []Position{openPosition("100", "100"), stopped}
	losers := []Position{stopped, openPosition("80", "160")}

	entries := ComputeSettlement(winners, losers, decimal.Zero)
	if len(entries) != 1 {
		t.Fatalf("entry count = %d, want 1 (stopped-out position excluded)", len(entries))
	}
	// losing pool is only the open loser's 80; tax 0 → full 80 to sole winner
	if want := dec("180"); !entries[0].Payout.Equal(want) {
		t.Errorf("payout = %s, want %s", entries[0].Payout, want)
	}
}

func TestComputeSettlementRoundsDown(t *testing.T) {
	winners := []Position{
		openPosition("10", "100"),
		openPosition("10", "200"),
	}
	losers := []Position{openPosition("100", "100")}

	entries := ComputeSettlement(winners, losers, decimal.Zero)
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Payout)
	}
	// 100/3 and 200/3 both floor, so the sum never exceeds pledges + pool
	if total.GreaterThan(dec("120")) {
		t.Errorf("payout total %s exceeds pledges plus losing pool", total)
	}
}
