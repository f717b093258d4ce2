package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestShouldStopOut(t *testing.T) {
	lev := Position{
		Status:          PositionOpen,
		IsLeveraged:     true,
		StopProbability: dec("30"),
	}

	if lev.ShouldStopOut(dec("35")) {
		t.Error("probability above stop must not trigger")
	}
	if !lev.ShouldStopOut(dec("30")) {
		t.Error("probability at stop must trigger")
	}
	if !lev.ShouldStopOut(dec("12.5")) {
		t.Error("probability below stop must trigger")
	}

	flat := Position{Status: PositionOpen, IsLeveraged: false, StopProbability: decimal.Zero}
	if flat.ShouldStopOut(dec("0.01")) {
		t.Error("unleveraged position must never stop out")
	}

	closed := lev
	closed.Status = PositionClosed
	if closed.ShouldStopOut(dec("1")) {
		t.Error("closed position must never stop out again")
	}
}

func TestApplyTopUpRefreshesStop(t *testing.T) {
	p := Position{
		Status:      PositionOpen,
		IsLeveraged: true,
		Pledge:      dec("50"),
		Wager:       dec("200"),
		Loan:        dec("150"),
		Leverage:    dec("4"),
	}
	q := Quote{
		Pledge: dec("50"),
		Wager:  dec("100"),
		Loan:   dec("50"),
	}

	p.ApplyTopUp(q, dec("60"))

	if !p.Pledge.Equal(dec("100")) || !p.Wager.Equal(dec("300")) || !p.Loan.Equal(dec("200")) {
		t.Errorf("aggregates = %s/%s/%s, want 100/300/200", p.Pledge, p.Wager, p.Loan)
	}
	if !p.Leverage.Equal(dec("3")) {
		t.Errorf("effective leverage = %s, want 3", p.Leverage)
	}
	// stop = 60 × 200/300 = 40
	if !p.StopProbability.Equal(dec("40")) {
		t.Errorf("StopProbability = %s, want 40", p.StopProbability)
	}
	if !p.EntryProbability.Equal(dec("60")) {
		t.Errorf("EntryProbability = %s, want 60", p.EntryProbability)
	}
}

func TestGroupPositions(t *testing.T) {
	reason := ReasonMarginCalled
	positions := []Position{
		{Status: PositionOpen},
		{Status: PositionClosed, LastReason: &reason},
		{Status: PositionOpen},
	}

	groups := GroupPositions(positions)
	if len(groups) != 2 {
		t.Fatalf("group count = %d, want 2", len(groups))
	}
	if groups[0].Type != "open" || len(groups[0].Positions) != 2 {
		t.Errorf("open group = %s/%d, want open/2", groups[0].Type, len(groups[0].Positions))
	}
	if groups[1].Type != "closed" || len(groups[1].Positions) != 1 {
		t.Errorf("closed group = %s/%d, want closed/1", groups[1].Type, len(groups[1].Positions))
	}

	empty := GroupPositions(nil)
	if len(empty) != 2 || len(empty[0].Positions) != 0 || len(empty[1].Positions) != 0 {
		t.Error("both buckets must be present for an empty input")
	}
}
