package service_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/predyx/exchange/internal/domain"
	"github.com/shopspring/decimal"
)

// TestConcurrentWaterfallDebit simulates 50 goroutines simultaneously funding
// pledges from a shared wallet set — protected by a mutex. This test verifies
// our concurrency guard pattern compiles and passes -race.
//
// In the real WagerService, the DB row-level FOR UPDATE lock on the wallet
// rows provides this guarantee. Here we replicate the same guard with sync
// primitives so the race detector can confirm the pattern is sound.
func TestConcurrentWaterfallDebit(t *testing.T) {
	const workers = 50
	const pledgeEach = 10

	// topup + profit exactly cover every pledge; bonus stays untouched.
	set := domain.WalletSet{
		domain.WalletTopup:  {Kind: domain.WalletTopup, Balance: decimal.NewFromInt(workers * pledgeEach / 2)},
		domain.WalletProfit: {Kind: domain.WalletProfit, Balance: decimal.NewFromInt(workers * pledgeEach / 2)},
		domain.WalletBonus:  {Kind: domain.WalletBonus, Balance: decimal.Zero},
	}

	var mu sync.Mutex
	var rejected int64

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			pledge := decimal.NewFromInt(pledgeEach)

			mu.Lock()
			defer mu.Unlock()

			legs, err := set.PlanDebit(pledge)
			if err != nil {
				atomic.AddInt64(&rejected, 1)
				return
			}
			for _, leg := range legs {
				w := set[leg.Kind]
				w.Balance = w.Balance.Sub(leg.Amount)
			}
		}()
	}
	wg.Wait()

	if rejected > 0 {
		t.Errorf("expected 0 rejected pledges, got %d", rejected)
	}
	if !set.Total().IsZero() {
		t.Errorf("final combined balance should be 0, got %s", set.Total())
	}
}

// TestConcurrentStopOutGuard verifies that a position can only be margin-
// called once under concurrent sweeps: only one of N goroutines closes it.
// The real sweep gets this from the guarded UPDATE (WHERE status='open').
func TestConcurrentStopOutGuard(t *testing.T) {
	const workers = 20

	type positionState struct {
		mu     sync.Mutex
		status domain.PositionStatus
	}

	p := positionState{status: domain.PositionOpen}
	var (
		closed  int64
		skipped int64
		wg      sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			p.mu.Lock()
			defer p.mu.Unlock()

			if p.status != domain.PositionOpen {
				atomic.AddInt64(&skipped, 1)
				return
			}
			p.status = domain.PositionClosed
			atomic.AddInt64(&closed, 1)
		}()
	}
	wg.Wait()

	if closed != 1 {
		t.Errorf("exactly 1 sweep should close the position, got %d", closed)
	}
	if skipped != workers-1 {
		t.Errorf("expected %d skipped sweeps, got %d", workers-1, skipped)
	}
}
