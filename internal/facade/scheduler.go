package facade

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	iface "github.com/flammafex/rendezvous/internal/domain/interfaces"
	types "github.com/flammafex/rendezvous/internal/domain/types"
)

// Scheduler drives the deadline-triggered side of a pool's lifecycle:
// every tick it scans open and reveal pools whose reveal deadline has
// passed, waits out a randomized privacy delay per pool so match
// detection doesn't fire the instant a deadline ticks over, then closes,
// detects, and — for ephemeral pools — deletes participant records.
type Scheduler struct {
	facade *Facade
	clock  iface.Clock
	log    *zap.Logger

	tickInterval time.Duration
	delayMin     time.Duration
	delayMax     time.Duration

	// SleepFunc stands in for time.Sleep in tests.
	SleepFunc func(time.Duration)

	mu       sync.Mutex
	inFlight map[types.PoolID]struct{}
}

// NewScheduler builds a Scheduler polling every tickInterval and delaying
// each pool's close-and-detect by a random duration in [delayMin, delayMax).
func NewScheduler(f *Facade, clk iface.Clock, log *zap.Logger, tickInterval, delayMin, delayMax time.Duration) *Scheduler {
	return &Scheduler{
		facade:       f,
		clock:        clk,
		log:          log,
		tickInterval: tickInterval,
		delayMin:     delayMin,
		delayMax:     delayMax,
		SleepFunc:    time.Sleep,
		inFlight:     make(map[types.PoolID]struct{}),
	}
}

// Run blocks, ticking every tickInterval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.ScanOnce(ctx)
		}
	}
}

// ScanOnce runs a single scan-and-dispatch pass immediately, without
// waiting for the next tick. Run calls this on every tick; tests and
// manual triggers can call it directly.
func (s *Scheduler) ScanOnce(ctx context.Context) {
	pools, err := s.facade.ListPools(ctx)
	if err != nil {
		s.log.Warn("scheduler: listing pools", zap.Error(err))
		return
	}

	now := s.clock.Now()
	g, ctx := errgroup.WithContext(ctx)
	for _, p := range pools {
		p := p
		if p.EffectiveStatus(now) == types.PoolStatusClosed {
			continue
		}
		if !now.Before(p.RevealDeadline) {
			if s.claim(p.ID) {
				g.Go(func() error {
					defer s.release(p.ID)
					s.closeAndDetect(ctx, p)
					return nil
				})
			}
		}
	}
	if err := g.Wait(); err != nil {
		s.log.Warn("scheduler: pass failed", zap.Error(err))
	}
}

func (s *Scheduler) claim(id types.PoolID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[id]; busy {
		return false
	}
	s.inFlight[id] = struct{}{}
	return true
}

func (s *Scheduler) release(id types.PoolID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

func (s *Scheduler) closeAndDetect(ctx context.Context, p types.Pool) {
	s.SleepFunc(randomDuration(s.delayMin, s.delayMax))

	if _, err := s.facade.RefreshPoolStatus(ctx, p.ID); err != nil {
		s.log.Warn("scheduler: closing pool", zap.String("pool", p.ID.String()), zap.Error(err))
	}

	if _, err := s.facade.DetectMatches(ctx, p.ID); err != nil {
		s.log.Warn("scheduler: detecting matches", zap.String("pool", p.ID.String()), zap.Error(err))
		return
	}

	if p.Ephemeral {
		if err := s.facade.store.DeleteParticipantsByPool(ctx, p.ID); err != nil {
			s.log.Warn("scheduler: deleting ephemeral participants", zap.String("pool", p.ID.String()), zap.Error(err))
		}
	}
}

func randomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
