package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func ptr[T any](v T) *T {
	return &v
}

type gateResult[T any] struct {
	data *T
	err  error
}

// gateCall is one in-flight invocation of a gated fetch. The test decides
// when and how it settles.
type gateCall[T any] struct {
	ctx     context.Context
	params  Params
	release chan gateResult[T]
}

func (c *gateCall[T]) succeed(v T) {
	c.release <- gateResult[T]{data: &v}
}

func (c *gateCall[T]) fail(err error) {
	c.release <- gateResult[T]{err: err}
}

// fetchGate is a FetchFunc whose calls park until the test releases them,
// in whatever order the test wants.
type fetchGate[T any] struct {
	mu    sync.Mutex
	total int
	ch    chan *gateCall[T]
}

func newFetchGate[T any]() *fetchGate[T] {
	return &fetchGate[T]{ch: make(chan *gateCall[T], 16)}
}

func (g *fetchGate[T]) fetch(ctx context.Context, p Params) (*T, error) {
	call := &gateCall[T]{ctx: ctx, params: p, release: make(chan gateResult[T], 1)}
	g.mu.Lock()
	g.total++
	g.mu.Unlock()
	g.ch <- call
	select {
	case r := <-call.release:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *fetchGate[T]) next(t *testing.T) *gateCall[T] {
	t.Helper()
	select {
	case c := <-g.ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no fetch issued")
		return nil
	}
}

func (g *fetchGate[T]) expectNone(t *testing.T) {
	t.Helper()
	select {
	case <-g.ch:
		t.Fatal("unexpected fetch issued")
	case <-time.After(50 * time.Millisecond):
	}
}

func (g *fetchGate[T]) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.total
}

type recordingObserver struct {
	mu      sync.Mutex
	started int
	settled chan string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{settled: make(chan string, 32)}
}

func (o *recordingObserver) FetchStarted(string) {
	o.mu.Lock()
	o.started++
	o.mu.Unlock()
}

func (o *recordingObserver) FetchSettled(_ string, outcome string, _ time.Duration) {
	o.settled <- outcome
}

func (o *recordingObserver) waitOutcome(t *testing.T, want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-o.settled:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("outcome %q never reported", want)
		}
	}
}

func changes[T any](c *Coordinator[T]) <-chan State[T] {
	ch := make(chan State[T], 32)
	c.OnChange(func(s State[T]) { ch <- s })
	return ch
}

func waitStatus[T any](t *testing.T, ch <-chan State[T], want Status) State[T] {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-ch:
			if s.Status == want {
				return s
			}
		case <-deadline:
			t.Fatalf("status %q never observed", want)
		}
	}
}

func expectNoChange[T any](t *testing.T, ch <-chan State[T]) {
	t.Helper()
	select {
	case s := <-ch:
		t.Fatalf("unexpected state change to %q", s.Status)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStartIssuesFetchAndAppliesResult(t *testing.T) {
	gate := newFetchGate[string]()
	c := New(zap.NewNop(), "blocked", "stats/blocked", gate.fetch, Config{})
	ch := changes(c)

	c.Start(Params{P("window", "24h")})

	call := gate.next(t)
	if !call.params.Equal(Params{P("window", "24h")}) {
		t.Fatalf("fetch params = %v", call.params)
	}
	loading := waitStatus(t, ch, Loading)
	if loading.Data != nil {
		t.Errorf("first Loading carries data %v", *loading.Data)
	}
	if loading.Generation != 1 {
		t.Errorf("Generation = %d, want 1", loading.Generation)
	}

	call.succeed("24h blocked stats")

	got := waitStatus(t, ch, Success)
	if got.Data == nil || *got.Data != "24h blocked stats" {
		t.Fatalf("Data = %v, want applied result", got.Data)
	}
	if got.FetchedAt.IsZero() {
		t.Error("FetchedAt not set on success")
	}
	if got.Err != nil {
		t.Errorf("Err = %v, want nil", got.Err)
	}
}

func TestStartWithSameKeyDoesNotRefetch(t *testing.T) {
	gate := newFetchGate[string]()
	c := New(zap.NewNop(), "blocked", "stats/blocked", gate.fetch, Config{})
	ch := changes(c)
	params := Params{P("window", "24h")}

	c.Start(params)
	call := gate.next(t)

	c.Start(params) // same key while loading
	gate.expectNone(t)

	call.succeed("data")
	waitStatus(t, ch, Success)

	c.Start(params) // same key while settled
	gate.expectNone(t)

	if got := gate.count(); got != 1 {
		t.Errorf("fetch count = %d, want 1", got)
	}
	if gen := c.Snapshot().Generation; gen != 1 {
		t.Errorf("Generation = %d, want 1", gen)
	}
}

func TestStartWithNewParamsSupersedesInFlightFetch(t *testing.T) {
	gate := newFetchGate[string]()
	obs := newRecordingObserver()
	c := New(zap.NewNop(), "blocked", "stats/blocked", gate.fetch, Config{Observer: obs})
	ch := changes(c)

	c.Start(Params{P("window", "24h")})
	first := gate.next(t)

	c.Start(Params{P("window", "7d")})
	second := gate.next(t)

	// the newer fetch resolves before the older one
	second.succeed("7d data")
	got := waitStatus(t, ch, Success)
	if *got.Data != "7d data" {
		t.Fatalf("Data = %q, want 7d data", *got.Data)
	}
	if got.Generation != 2 {
		t.Errorf("Generation = %d, want 2", got.Generation)
	}

	// the stale result must be dropped on arrival
	first.succeed("24h data")
	obs.waitOutcome(t, OutcomeSuperseded)

	final := c.Snapshot()
	if *final.Data != "7d data" {
		t.Errorf("Data = %q after stale settle, want 7d data", *final.Data)
	}
	if final.Status != Success {
		t.Errorf("Status = %q, want %q", final.Status, Success)
	}
	expectNoChange(t, ch)
}

func TestWindowSwitchDiscardsLateResponse(t *testing.T) {
	// a panel on the 24h window switches to 7d before the 24h response
	// lands; the late response must never reach the panel
	gate := newFetchGate[string]()
	obs := newRecordingObserver()
	c := New(zap.NewNop(), "blocked", "stats/blocked", gate.fetch, Config{Observer: obs})
	ch := changes(c)

	c.Start(Params{P("window", "24h")})
	day := gate.next(t)

	c.Start(Params{P("window", "7d")})
	week := gate.next(t)

	day.succeed("24h result")
	obs.waitOutcome(t, OutcomeSuperseded)

	mid := c.Snapshot()
	if mid.Status != Loading {
		t.Fatalf("Status = %q while 7d in flight, want %q", mid.Status, Loading)
	}
	if mid.Data != nil {
		t.Fatalf("Data = %q, 24h result leaked through", *mid.Data)
	}

	week.succeed("7d result")
	got := waitStatus(t, ch, Success)
	if *got.Data != "7d result" {
		t.Errorf("Data = %q, want 7d result", *got.Data)
	}
}

func TestLateErrorFromSupersededFetchIsDiscarded(t *testing.T) {
	gate := newFetchGate[string]()
	obs := newRecordingObserver()
	c := New(zap.NewNop(), "blocked", "stats/blocked", gate.fetch, Config{Observer: obs, FailureThreshold: 1})
	ch := changes(c)

	c.Start(Params{P("window", "24h")})
	first := gate.next(t)

	c.Start(Params{P("window", "7d")})
	second := gate.next(t)

	second.succeed("7d data")
	waitStatus(t, ch, Success)

	first.fail(errors.New("connection reset"))
	obs.waitOutcome(t, OutcomeSuperseded)

	got := c.Snapshot()
	if got.Status != Success || got.Err != nil {
		t.Errorf("stale error clobbered state: status %q, err %v", got.Status, got.Err)
	}
}

func TestFailurePreservesPreviousData(t *testing.T) {
	gate := newFetchGate[string]()
	c := New(zap.NewNop(), "blocked", "stats/blocked", gate.fetch, Config{FailureThreshold: 1})
	ch := changes(c)

	c.Start(Params{P("window", "24h")})
	gate.next(t).succeed("good data")
	first := waitStatus(t, ch, Success)

	c.Retry()
	retry := gate.next(t)
	loading := waitStatus(t, ch, Loading)
	if loading.Data == nil || *loading.Data != "good data" {
		t.Fatal("previous data not presented while revalidating")
	}

	retry.fail(errors.New("upstream 502"))
	got := waitStatus(t, ch, Error)
	if got.Data == nil || *got.Data != "good data" {
		t.Fatalf("Data = %v after failure, want stale value kept", got.Data)
	}
	if got.Err == nil {
		t.Error("Err not set on failure")
	}
	if !got.FetchedAt.Equal(first.FetchedAt) {
		t.Error("FetchedAt advanced on a failed refresh")
	}
}

func TestFailureThresholdGracePeriod(t *testing.T) {
	gate := newFetchGate[string]()
	c := New(zap.NewNop(), "blocked", "stats/blocked", gate.fetch, Config{FailureThreshold: 3})
	ch := changes(c)

	c.Start(Params{P("window", "24h")})
	gate.next(t).succeed("good data")
	waitStatus(t, ch, Success)

	// two consecutive failures stay below the threshold: the stale data
	// keeps being presented without a surfaced error
	for i := 0; i < 2; i++ {
		c.Retry()
		gate.next(t).fail(errors.New("timeout"))
		got := waitStatus(t, ch, Success)
		if got.Data == nil || *got.Data != "good data" {
			t.Fatalf("failure %d blanked the data", i+1)
		}
	}

	// the third consecutive failure surfaces the error
	c.Retry()
	gate.next(t).fail(errors.New("timeout"))
	got := waitStatus(t, ch, Error)
	if *got.Data != "good data" {
		t.Errorf("Data = %q, want stale value kept", *got.Data)
	}

	// one success resets the run
	c.Retry()
	gate.next(t).succeed("fresh data")
	waitStatus(t, ch, Success)

	c.Retry()
	gate.next(t).fail(errors.New("timeout"))
	after := waitStatus(t, ch, Success)
	if after.Data == nil || *after.Data != "fresh data" {
		t.Error("failure counter not reset by success")
	}
}

func TestFailuresBeforeFirstDataKeepLoading(t *testing.T) {
	gate := newFetchGate[string]()
	c := New(zap.NewNop(), "blocked", "stats/blocked", gate.fetch, Config{FailureThreshold: 3})
	ch := changes(c)

	c.Start(Params{P("window", "24h")})
	for i := 0; i < 2; i++ {
		gate.next(t).fail(errors.New("no route to host"))
		got := waitStatus(t, ch, Loading)
		if got.Data != nil {
			t.Fatalf("Data = %v, want none", got.Data)
		}
		c.Retry()
	}
	gate.next(t).fail(errors.New("no route to host"))

	got := waitStatus(t, ch, Error)
	if got.Data != nil {
		t.Errorf("Data = %v on error, want none", got.Data)
	}
}

func TestRetryBumpsGenerationAndRefetches(t *testing.T) {
	gate := newFetchGate[string]()
	c := New(zap.NewNop(), "blocked", "stats/blocked", gate.fetch, Config{})
	ch := changes(c)
	params := Params{P("window", "24h")}

	c.Start(params)
	gate.next(t).succeed("first")
	waitStatus(t, ch, Success)

	c.Retry()
	call := gate.next(t)
	if !call.params.Equal(params) {
		t.Fatalf("retry params = %v, want unchanged", call.params)
	}

	call.succeed("second")
	got := waitStatus(t, ch, Success)
	if *got.Data != "second" {
		t.Errorf("Data = %q, want refreshed value", *got.Data)
	}
	if got.Generation != 2 {
		t.Errorf("Generation = %d, want 2", got.Generation)
	}
}

func TestRetryBeforeStartIsNoOp(t *testing.T) {
	gate := newFetchGate[string]()
	c := New(zap.NewNop(), "blocked", "stats/blocked", gate.fetch, Config{})

	c.Retry()
	gate.expectNone(t)
	if got := c.Snapshot().Status; got != Idle {
		t.Errorf("Status = %q, want %q", got, Idle)
	}
}

func TestTeardownSilencesInFlightResults(t *testing.T) {
	gate := newFetchGate[string]()
	obs := newRecordingObserver()
	c := New(zap.NewNop(), "blocked", "stats/blocked", gate.fetch, Config{Observer: obs})
	ch := changes(c)

	c.Start(Params{P("window", "24h")})
	call := gate.next(t)
	waitStatus(t, ch, Loading)

	c.Teardown()
	call.succeed("late arrival")
	obs.waitOutcome(t, OutcomeTornDown)

	got := c.Snapshot()
	if got.Data != nil {
		t.Errorf("Data = %q applied after teardown", *got.Data)
	}
	if got.Status != Loading {
		t.Errorf("Status = %q mutated after teardown", got.Status)
	}
	expectNoChange(t, ch)
}

func TestTeardownCancelsInFlightFetch(t *testing.T) {
	gate := newFetchGate[string]()
	c := New(zap.NewNop(), "blocked", "stats/blocked", gate.fetch, Config{})

	c.Start(Params{P("window", "24h")})
	call := gate.next(t)

	c.Teardown()
	select {
	case <-call.ctx.Done():
	case <-time.After(2 * time.Second):
		t.Error("in-flight context not cancelled by teardown")
	}
}

func TestSupersededFetchContextIsCancelled(t *testing.T) {
	gate := newFetchGate[string]()
	c := New(zap.NewNop(), "blocked", "stats/blocked", gate.fetch, Config{})

	c.Start(Params{P("window", "24h")})
	first := gate.next(t)

	c.Start(Params{P("window", "7d")})
	gate.next(t)

	select {
	case <-first.ctx.Done():
	case <-time.After(2 * time.Second):
		t.Error("superseded context not cancelled")
	}
}

func TestStartAfterTeardownIsNoOp(t *testing.T) {
	gate := newFetchGate[string]()
	c := New(zap.NewNop(), "blocked", "stats/blocked", gate.fetch, Config{})

	c.Teardown()
	c.Start(Params{P("window", "24h")})
	gate.expectNone(t)

	if got := c.Snapshot().Status; got != Idle {
		t.Errorf("Status = %q, want %q", got, Idle)
	}
}

func TestFetchTimeoutSurfacesAsError(t *testing.T) {
	// the fetch never settles on its own; only the per-attempt timeout
	// can end it
	stall := func(ctx context.Context, _ Params) (*string, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	c := New(zap.NewNop(), "blocked", "stats/blocked", stall, Config{
		Timeout:          50 * time.Millisecond,
		FailureThreshold: 1,
	})
	ch := changes(c)

	c.Start(Params{P("window", "24h")})

	got := waitStatus(t, ch, Error)
	if !errors.Is(got.Err, context.DeadlineExceeded) {
		t.Errorf("Err = %v, want deadline exceeded", got.Err)
	}
}

func TestLoadingIsNeverSkippedOnParamChange(t *testing.T) {
	gate := newFetchGate[string]()
	c := New(zap.NewNop(), "blocked", "stats/blocked", gate.fetch, Config{})
	ch := changes(c)

	c.Start(Params{P("window", "24h")})
	gate.next(t).succeed("24h data")

	var seen []Status
	for len(seen) < 2 {
		seen = append(seen, (<-ch).Status)
	}

	c.Start(Params{P("window", "7d")})
	gate.next(t).succeed("7d data")
	for len(seen) < 4 {
		seen = append(seen, (<-ch).Status)
	}

	want := []Status{Loading, Success, Loading, Success}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("transition %d = %q, want %q (full sequence %v)", i, seen[i], want[i], seen)
		}
	}
}
