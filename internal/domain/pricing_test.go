package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testOutcome(totalWager string) *Outcome {
	return &Outcome{
		ID:          uuid.New(),
		Code:        "A",
		TotalWager:  dec(totalWager),
		MinPledge:   dec("10"),
		MaxPledge:   dec("1000"),
		MaxLeverage: dec("10"),
	}
}

func TestImpliedProbability(t *testing.T) {
	tests := []struct {
		name         string
		outcomeWager string
		eventWager   string
		want         string
	}{
		{"even two-way split", "350", "700", "50"},
		{"minority outcome", "150", "600", "25"},
		{"empty pool", "0", "0", "0"},
		{"sole outcome", "200", "200", "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ImpliedProbability(dec(tt.outcomeWager), dec(tt.eventWager))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("ImpliedProbability(%s, %s) = %s, want %s",
					tt.outcomeWager, tt.eventWager, got, tt.want)
			}
		})
	}
}

func TestProposalDerivedFields(t *testing.T) {
	p := Proposal{Pledge: dec("100"), Leverage: dec("5")}
	if !p.Wager().Equal(dec("500")) {
		t.Errorf("Wager = %s, want 500", p.Wager())
	}
	if !p.Loan().Equal(dec("400")) {
		t.Errorf("Loan = %s, want 400", p.Loan())
	}
	if !p.IsLeveraged() {
		t.Error("expected leverage 5 to be leveraged")
	}

	flat := Proposal{Pledge: dec("100"), Leverage: dec("1")}
	if !flat.Loan().IsZero() {
		t.Errorf("unleveraged Loan = %s, want 0", flat.Loan())
	}
	if flat.IsLeveraged() {
		t.Error("leverage 1 must not be leveraged")
	}
}

func TestProposalCheckBounds(t *testing.T) {
	o := testOutcome("350")

	tests := []struct {
		name     string
		pledge   string
		leverage string
		forced   bool
		wantErr  error
	}{
		{"within bounds", "50", "2", false, nil},
		{"at min pledge", "10", "1", false, nil},
		{"below min pledge", "5", "1", false, ErrPledgeBelowMin},
		{"at max pledge", "1000", "1", false, nil},
		{"above max pledge", "1001", "1", false, ErrPledgeAboveMax},
		{"full leverage within pledge cap", "500", "10", false, nil},
		{"above max leverage", "10", "11", false, ErrLeverageAboveMax},
		{"forced skips bounds", "5", "11", true, nil},
		{"forced still rejects zero pledge", "0", "2", true, ErrInvalidPledge},
		{"leverage below one", "50", "0.5", false, ErrInvalidLeverage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Proposal{Pledge: dec(tt.pledge), Leverage: dec(tt.leverage)}
			err := p.CheckBounds(o, tt.forced)
			if err != tt.wantErr {
				t.Errorf("CheckBounds() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPriceQuotePayoutShrinksWithSize(t *testing.T) {
	o := testOutcome("350")
	eventWager := dec("700")

	small := PriceQuote(o, eventWager, Proposal{Pledge: dec("10"), Leverage: dec("1")}, decimal.Zero, decimal.Zero)
	large := PriceQuote(o, eventWager, Proposal{Pledge: dec("500"), Leverage: dec("1")}, decimal.Zero, decimal.Zero)

	smallRatio := small.IndicativePayout.Div(small.Wager)
	largeRatio := large.IndicativePayout.Div(large.Wager)
	if !largeRatio.LessThan(smallRatio) {
		t.Errorf("large wager payout ratio %s should be below small wager ratio %s",
			largeRatio, smallRatio)
	}
	if !large.ProbabilityAfter.GreaterThan(large.ProbabilityBefore) {
		t.Error("buying an outcome must raise its probability")
	}
}

func TestPriceQuoteUnleveraged(t *testing.T) {
	o := testOutcome("350")
	q := PriceQuote(o, dec("700"), Proposal{Pledge: dec("100"), Leverage: dec("1")}, decimal.Zero, decimal.Zero)

	// pool after: outcome 450 of 800 → p_after = 56.25, gross = 100/0.5625
	if !q.ProbabilityAfter.Equal(dec("56.25")) {
		t.Errorf("ProbabilityAfter = %s, want 56.25", q.ProbabilityAfter)
	}
	if !q.Loan.IsZero() {
		t.Errorf("Loan = %s, want 0", q.Loan)
	}
	if !q.IndicativePayout.Equal(dec("177.7777")) {
		t.Errorf("IndicativePayout = %s, want 177.7777", q.IndicativePayout)
	}
	if !q.StopProbability.IsZero() {
		t.Errorf("unleveraged StopProbability = %s, want 0", q.StopProbability)
	}
	if q.IsLeveraged {
		t.Error("leverage 1 quote must not be flagged leveraged")
	}
}

func TestPriceQuoteLeveragedDeductsLoan(t *testing.T) {
	o := testOutcome("350")
	q := PriceQuote(o, dec("700"), Proposal{Pledge: dec("50"), Leverage: dec("4")}, decimal.Zero, decimal.Zero)

	if !q.Wager.Equal(dec("200")) {
		t.Errorf("Wager = %s, want 200", q.Wager)
	}
	if !q.Loan.Equal(dec("150")) {
		t.Errorf("Loan = %s, want 150", q.Loan)
	}
	// gross = 200 × 900/550, payout = gross − loan
	gross := dec("200").Mul(dec("900")).Div(dec("550"))
	want := gross.Sub(dec("150")).RoundDown(4)
	if !q.IndicativePayout.Equal(want) {
		t.Errorf("IndicativePayout = %s, want %s", q.IndicativePayout, want)
	}
	// stop = p_after × loan/wager = p_after × 0.75
	wantStop := q.ProbabilityAfter.Mul(dec("0.75")).RoundDown(4)
	if !q.StopProbability.Equal(wantStop) {
		t.Errorf("StopProbability = %s, want %s", q.StopProbability, wantStop)
	}
	if !q.StopProbability.LessThan(q.ProbabilityAfter) {
		t.Error("stop threshold must sit below the entry probability")
	}
}

func TestPriceQuoteAdditiveSnapshots(t *testing.T) {
	o := testOutcome("350")
	q := PriceQuote(o, dec("700"), Proposal{Pledge: dec("40"), Leverage: dec("2")}, dec("60"), dec("120"))

	if !q.BeforePledge.Equal(dec("60")) || !q.AfterPledge.Equal(dec("100")) {
		t.Errorf("pledge snapshots = %s → %s, want 60 → 100", q.BeforePledge, q.AfterPledge)
	}
	if !q.BeforeWager.Equal(dec("120")) || !q.AfterWager.Equal(dec("200")) {
		t.Errorf("wager snapshots = %s → %s, want 120 → 200", q.BeforeWager, q.AfterWager)
	}
}

func TestStopProbability(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		loan  string
		wager string
		want  string
	}{
		{"no loan never stops", "50", "0", "100", "0"},
		{"half borrowed", "50", "50", "100", "25"},
		{"max leverage", "40", "90", "100", "36"},
		{"zero wager guard", "50", "10", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StopProbability(dec(tt.entry), dec(tt.loan), dec(tt.wager))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("StopProbability(%s, %s, %s) = %s, want %s",
					tt.entry, tt.loan, tt.wager, got, tt.want)
			}
		})
	}
}
