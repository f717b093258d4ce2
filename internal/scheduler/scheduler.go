// Package scheduler runs the background goroutine that closes trading on
// events whose end time has passed. Resolution stays a manual admin action;
// the scheduler only moves expired events out of the tradable states so no
// wager lands after the outcome may already be known.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/predyx/exchange/internal/config"
	"github.com/predyx/exchange/internal/service"
)

// Scheduler owns the auto-close loop. Call Start(ctx) once from main();
// cancel the context to shut it down gracefully.
type Scheduler struct {
	eventSvc *service.EventService
	cfg      *config.Config
	logger   *slog.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(eventSvc *service.EventService, cfg *config.Config, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		eventSvc: eventSvc,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start launches the auto-close goroutine. It returns immediately; the loop
// runs until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.autoCloseLoop(ctx)
	s.logger.Info("scheduler started", "interval", s.cfg.Scheduler.AutoCloseInterval)
}

// autoCloseLoop sweeps for expired open or paused events on a fixed interval
// and transitions each to closed.
func (s *Scheduler) autoCloseLoop(ctx context.Context) {
	defer s.recoverAndLog("autoCloseLoop")

	ticker := time.NewTicker(s.cfg.Scheduler.AutoCloseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("autoCloseLoop: shutting down")
			return
		case <-ticker.C:
			if err := s.eventSvc.AutoCloseExpired(ctx); err != nil {
				s.logger.Error("autoCloseLoop: AutoCloseExpired", "err", err)
			}
		}
	}
}

// recoverAndLog is deferred inside the goroutine to catch unexpected panics,
// log them, and keep the process alive.
func (s *Scheduler) recoverAndLog(loop string) {
	if r := recover(); r != nil {
		s.logger.Error("PANIC recovered in scheduler loop",
			"loop", loop, "panic", r)
	}
}
