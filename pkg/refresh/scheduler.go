// Package refresh re-triggers every active panel's fetch on a fixed
// cadence. One shared ticker drives all registered callbacks, so a dashboard
// with dozens of panels still costs a single timer.
package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// TickFunc re-issues one coordinator's fetch. Implementations must not
// block; coordinators launch their fetches asynchronously.
type TickFunc func()

// Scheduler fans a single ticker out to every registered coordinator. It
// never waits for a previous fetch before firing the next tick; generation
// numbers downstream settle any overlap.
type Scheduler struct {
	logger   *zap.Logger
	clk      clock.Clock
	interval time.Duration
	ticks    atomic.Uint64

	mu       sync.Mutex
	registry map[string]TickFunc
}

func New(logger *zap.Logger, clk clock.Clock, interval time.Duration) *Scheduler {
	return &Scheduler{
		logger:   logger,
		clk:      clk,
		interval: interval,
		registry: make(map[string]TickFunc),
	}
}

// Register adds a coordinator's tick callback. Registering an id again
// replaces the previous callback.
func (s *Scheduler) Register(id string, tick TickFunc) {
	s.mu.Lock()
	s.registry[id] = tick
	s.mu.Unlock()
	s.logger.Debug("registered", zap.String("id", id))
}

// Unregister removes id. Ticks firing for an id after removal are no-ops.
func (s *Scheduler) Unregister(id string) {
	s.mu.Lock()
	delete(s.registry, id)
	s.mu.Unlock()
	s.logger.Debug("unregistered", zap.String("id", id))
}

// Run blocks, firing every registered callback once per interval until ctx
// is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := s.clk.Ticker(s.interval)
	defer ticker.Stop()
	s.logger.Info("refresh scheduler running", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			s.fire()
		}
	}
}

// Ticks reports how many times the shared timer has fired.
func (s *Scheduler) Ticks() uint64 {
	return s.ticks.Load()
}

// fire invokes each registered callback exactly once. Ids are snapshotted
// first and looked up again at call time, so an id unregistered mid-tick is
// skipped.
func (s *Scheduler) fire() {
	s.ticks.Add(1)
	s.mu.Lock()
	ids := make([]string, 0, len(s.registry))
	for id := range s.registry {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.tick(id)
	}
}

func (s *Scheduler) tick(id string) {
	s.mu.Lock()
	fn, ok := s.registry[id]
	s.mu.Unlock()
	if !ok {
		return
	}
	fn()
}
