package domain

import (
	"errors"
	"fmt"
	"testing"
)

// Repo methods wrap sentinels before they reach the services; the predicates
// must see through the wrapping, and a transient failure must never be
// mistaken for a not-found.
func TestErrorClassPredicates(t *testing.T) {
	transient := errors.New("driver: bad connection")

	tests := []struct {
		name string
		err  error
		pred func(error) bool
		want bool
	}{
		{"not-found direct", ErrEventNotFound, IsNotFound, true},
		{"not-found wrapped", fmt.Errorf("event_repo.GetByRef: %w", ErrEventNotFound), IsNotFound, true},
		{"transient is not not-found", transient, IsNotFound, false},
		{"wrapped transient is not not-found", fmt.Errorf("event_repo.GetByRef: %w", transient), IsNotFound, false},
		{"nil is not not-found", nil, IsNotFound, false},
		{"conflict wrapped", fmt.Errorf("wager: %w", ErrPayoutSlippage), IsConflict, true},
		{"transient is not a conflict", transient, IsConflict, false},
		{"validation wrapped", fmt.Errorf("quote: %w", ErrWagerMismatch), IsValidation, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred(tt.err); got != tt.want {
				t.Errorf("predicate(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestNotFoundIsDistinctFromTransient(t *testing.T) {
	transient := fmt.Errorf("event_repo.GetByRef: %w", errors.New("driver: bad connection"))
	if errors.Is(transient, ErrEventNotFound) {
		t.Error("a transient lookup failure must not match ErrEventNotFound")
	}
	if !errors.Is(fmt.Errorf("event_repo.GetByRef: %w", ErrEventNotFound), ErrEventNotFound) {
		t.Error("a wrapped ErrEventNotFound must match ErrEventNotFound")
	}
}
