// Package query implements the fetch lifecycle behind every dashboard panel.
//
// A Coordinator owns one logical, repeatedly refreshed query. Every fetch it
// issues is tagged with a generation number, and a result is applied only
// when its generation still equals the coordinator's current one at
// completion time. Anything older is discarded on arrival, errors included,
// so the newest request is authoritative no matter how the network reorders
// completions.
package query

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// FetchFunc loads one result for the given parameters. Implementations
// honor ctx cancellation, return a non-nil result on success, and report
// failures as errors from pkg/errs rather than panicking.
type FetchFunc[T any] func(ctx context.Context, p Params) (*T, error)

// Observer receives coordinator accounting events. Implementations must not
// block; they are called on the fetch goroutine.
type Observer interface {
	FetchStarted(id string)
	FetchSettled(id string, outcome string, elapsed time.Duration)
}

// Settle outcomes reported to the Observer.
const (
	OutcomeSuccess    = "success"
	OutcomeError      = "error"
	OutcomeSuperseded = "superseded"
	OutcomeTornDown   = "torn_down"
)

// Config is the fetch policy shared by all coordinators.
type Config struct {
	// Timeout bounds a single fetch attempt.
	Timeout time.Duration
	// FailureThreshold is how many consecutive failures accumulate before
	// Status turns Error. Below it the previous data keeps being presented
	// and the next refresh tick retries quietly.
	FailureThreshold int
	// Clock is the time source. Tests install a mock.
	Clock clock.Clock
	// Observer, when set, receives accounting events.
	Observer Observer
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	return c
}

// Coordinator drives the lifecycle of one logical query: fetch, supersede,
// retry, periodic refresh, teardown. All methods are safe for concurrent
// use.
type Coordinator[T any] struct {
	logger   *zap.Logger
	id       string
	endpoint string
	fetch    FetchFunc[T]
	cfg      Config

	mu       sync.Mutex
	state    State[T]
	params   Params
	failures int
	torn     bool
	cancel   context.CancelFunc
	onChange func(State[T])
}

// New builds a Coordinator for one endpoint. id names the coordinator in
// logs and metrics; endpoint becomes part of every Key it computes.
func New[T any](logger *zap.Logger, id, endpoint string, fetch FetchFunc[T], cfg Config) *Coordinator[T] {
	return &Coordinator[T]{
		logger:   logger.With(zap.String("coordinator", id)),
		id:       id,
		endpoint: endpoint,
		fetch:    fetch,
		cfg:      cfg.withDefaults(),
		state:    State[T]{Status: Idle},
	}
}

func (c *Coordinator[T]) ID() string { return c.id }

// OnChange installs a hook invoked after every applied transition.
// Discarded results never fire it. Install before the first Start.
func (c *Coordinator[T]) OnChange(fn func(State[T])) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (c *Coordinator[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator[T]) snapshotLocked() State[T] {
	s := c.state
	s.Key.Params = s.Key.Params.Clone()
	return s
}

// Start (re)binds the coordinator to p. A changed Key bumps the generation,
// leaves the previous data in place behind a Loading status, and issues a
// fresh fetch; an unchanged Key on a live coordinator does nothing.
func (c *Coordinator[T]) Start(p Params) {
	c.mu.Lock()
	if c.torn {
		c.mu.Unlock()
		return
	}
	key := NewKey(c.endpoint, p)
	if c.state.Status != Idle && key.Equal(c.state.Key) {
		c.mu.Unlock()
		return
	}
	c.params = p.Clone()
	c.failures = 0
	c.launchLocked(key)
	fn, snap := c.onChange, c.snapshotLocked()
	c.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

// Retry re-issues the last parameters under a new generation, superseding
// any fetch still in flight. Prior failures never block a retry; every
// refresh tick lands here.
func (c *Coordinator[T]) Retry() {
	c.mu.Lock()
	if c.torn || c.state.Status == Idle {
		c.mu.Unlock()
		return
	}
	c.launchLocked(NewKey(c.endpoint, c.params))
	fn, snap := c.onChange, c.snapshotLocked()
	c.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

// Teardown retires the coordinator. The generation is advanced past every
// in-flight fetch so no late settle can ever match again, and the newest
// fetch's context is cancelled to stop the transport where it supports
// that. Correctness relies only on the generation check.
func (c *Coordinator[T]) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.torn {
		return
	}
	c.torn = true
	c.state.Generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.logger.Debug("torn down")
}

// launchLocked bumps the generation and starts the fetch goroutine. The
// caller holds c.mu and sends the post-launch notification.
func (c *Coordinator[T]) launchLocked(key Key) {
	if c.cancel != nil {
		c.cancel()
	}
	c.state.Generation++
	c.state.Key = key
	c.state.Status = Loading

	gen := c.state.Generation
	params := c.params.Clone()
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	c.cancel = cancel

	if obs := c.cfg.Observer; obs != nil {
		obs.FetchStarted(c.id)
	}
	c.logger.Debug("fetch", zap.Uint64("generation", gen), zap.String("key", key.String()))

	started := c.cfg.Clock.Now()
	go func() {
		data, err := c.fetch(ctx, params)
		cancel()
		c.settle(gen, data, err, c.cfg.Clock.Now().Sub(started))
	}()
}

// settle applies one fetch outcome. The generation gate is the entire
// supersession mechanism: a mismatch means a newer fetch owns the state and
// this result, success or failure, is dropped without touching anything.
func (c *Coordinator[T]) settle(gen uint64, data *T, err error, elapsed time.Duration) {
	c.mu.Lock()
	if c.torn {
		c.mu.Unlock()
		c.observe(OutcomeTornDown, elapsed)
		return
	}
	if gen != c.state.Generation {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded result",
			zap.Uint64("generation", gen), zap.Error(err))
		c.observe(OutcomeSuperseded, elapsed)
		return
	}

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
		c.failures++
		c.state.Err = err
		switch {
		case c.failures >= c.cfg.FailureThreshold:
			c.state.Status = Error
		case c.state.Data != nil:
			// data survives; below the threshold the panel keeps showing it
			c.state.Status = Success
		default:
			c.state.Status = Loading
		}
		c.logger.Warn("fetch failed",
			zap.Uint64("generation", gen),
			zap.Int("consecutive", c.failures),
			zap.Error(err))
	} else {
		c.failures = 0
		c.state.Status = Success
		c.state.Data = data
		c.state.Err = nil
		c.state.FetchedAt = c.cfg.Clock.Now()
	}

	fn, snap := c.onChange, c.snapshotLocked()
	c.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
	c.observe(outcome, elapsed)
}

func (c *Coordinator[T]) observe(outcome string, elapsed time.Duration) {
	if obs := c.cfg.Observer; obs != nil {
		obs.FetchSettled(c.id, outcome, elapsed)
	}
}
