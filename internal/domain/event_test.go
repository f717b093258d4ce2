package domain

import (
	"testing"
	"time"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from EventStatus
		to   EventStatus
		ok   bool
	}{
		{StatusCreated, StatusOpen, true},
		{StatusCreated, StatusClosed, false},
		{StatusCreated, StatusResolved, false},
		{StatusOpen, StatusPaused, true},
		{StatusOpen, StatusClosed, true},
		{StatusOpen, StatusResolved, false},
		{StatusPaused, StatusOpen, true},
		{StatusPaused, StatusClosed, true},
		{StatusPaused, StatusResolved, false},
		{StatusClosed, StatusResolved, true},
		{StatusClosed, StatusOpen, false},
		{StatusResolved, StatusOpen, false},
		{StatusResolved, StatusClosed, false},
		{StatusOpen, StatusOpen, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.ok {
			t.Errorf("CanTransition(%s → %s) = %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}

func TestStatusPredicates(t *testing.T) {
	if !StatusOpen.IsTradable() {
		t.Error("open must be tradable")
	}
	for _, s := range []EventStatus{StatusCreated, StatusPaused, StatusClosed, StatusResolved} {
		if s.IsTradable() {
			t.Errorf("%s must not be tradable", s)
		}
	}
	if !StatusResolved.IsTerminal() {
		t.Error("resolved must be terminal")
	}
	if StatusClosed.IsTerminal() {
		t.Error("closed must not be terminal")
	}
}

func TestEventPastEnd(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	e := &Event{Status: StatusOpen}
	if e.PastEnd(now) {
		t.Error("event without deadline must never be past end")
	}
	e.EndsAt = &future
	if e.PastEnd(now) {
		t.Error("future deadline must not be past end")
	}
	e.EndsAt = &past
	if !e.PastEnd(now) {
		t.Error("expired deadline must be past end")
	}
}

func TestEventToView(t *testing.T) {
	e := &Event{Code: "EVT-000123", Status: StatusOpen, Volume: dec("700")}
	outcomes := []Outcome{
		{Code: "A", TotalWager: dec("525"), TotalPledge: dec("400")},
		{Code: "B", TotalWager: dec("175"), TotalPledge: dec("150")},
	}

	v := e.ToView(outcomes)
	if len(v.Outcomes) != 2 {
		t.Fatalf("outcome count = %d, want 2", len(v.Outcomes))
	}
	if !v.Outcomes[0].TraderInfo.EstimatedProbability.Equal(dec("75")) {
		t.Errorf("outcome A probability = %s, want 75", v.Outcomes[0].TraderInfo.EstimatedProbability)
	}
	if !v.Outcomes[1].TraderInfo.EstimatedProbability.Equal(dec("25")) {
		t.Errorf("outcome B probability = %s, want 25", v.Outcomes[1].TraderInfo.EstimatedProbability)
	}
}
