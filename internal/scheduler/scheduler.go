// Package scheduler runs the periodic maintenance loops: the port-deal
// expiry sweep every minute and the currency snapshot refresh every hour.
// Both are idempotent, so a missed or doubled tick is harmless.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oguzhanyavuz/tradeport/internal/repository"
)

// Refresher is the currency service seam.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler owns the background tickers. Start once; Stop waits for any
// in-flight tick before returning.
type Scheduler struct {
	deals    repository.DealExpirer
	currency Refresher
	log      *zap.Logger

	sweepEvery   time.Duration
	refreshEvery time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	now    func() time.Time
}

// New wires the scheduler with the default cadences.
func New(deals repository.DealExpirer, currency Refresher, log *zap.Logger) *Scheduler {
	return &Scheduler{
		deals:        deals,
		currency:     currency,
		log:          log,
		sweepEvery:   time.Minute,
		refreshEvery: time.Hour,
		now:          time.Now,
	}
}

// Start launches the loops. An initial currency refresh runs immediately so
// conversions work from boot instead of waiting out the first hour.
func (s *Scheduler) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel

	s.wg.Add(2)
	go s.sweepLoop(ctx)
	go s.refreshLoop(ctx)
}

// Stop cancels the loops and blocks until in-flight ticks finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) sweepLoop(ctx context.Context) {
	defer s.wg.Done()
	t := time.NewTicker(s.sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.SweepDeals(ctx)
		}
	}
}

func (s *Scheduler) refreshLoop(ctx context.Context) {
	defer s.wg.Done()
	if s.currency == nil {
		return
	}
	if err := s.currency.Refresh(ctx); err != nil {
		s.log.Warn("initial currency refresh failed", zap.Error(err))
	}
	t := time.NewTicker(s.refreshEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.currency.Refresh(ctx); err != nil {
				s.log.Warn("currency refresh failed", zap.Error(err))
			}
		}
	}
}

// SweepDeals flips the expired flag on every port deal whose window has
// closed. Exposed so a staff endpoint can force a sweep.
func (s *Scheduler) SweepDeals(ctx context.Context) {
	n, err := s.deals.ExpireDue(ctx, s.now().UTC())
	if err != nil {
		s.log.Warn("port deal expiry sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("port deals expired", zap.Int64("count", n))
	}
}
