// Package panel wires query coordinators to the dashboard surface. A
// Binding owns the per-panel glue: it derives fetch parameters from the
// current dashboard inputs, detects when any of those inputs changed
// identity, and exposes the view-facing snapshot of its coordinator's
// state.
package panel

import (
	"maps"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matthianna/honeypot-dashboard-sub003/pkg/errs"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/query"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/refresh"
)

// ParamsFunc computes the wire parameters for one fetch from the current
// dashboard inputs plus the panel-local filters.
type ParamsFunc func(filters map[string]string) query.Params

// DepsFunc lists the identities the parameters derive from, such as the
// active window and filter values. A change in any element triggers a new
// fetch on the next Update.
type DepsFunc func(filters map[string]string) []string

// Spec describes one panel binding.
type Spec struct {
	ID     string
	Title  string
	Params ParamsFunc
	// Deps may be nil, in which case the encoded parameters themselves
	// act as the dependency list.
	Deps DepsFunc
}

// ErrorInfo is the error surface exposed to views.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Snapshot is what a view renders: the last known data, whether a refresh
// is in flight, and the surfaced error, if any. Data stays populated while
// loading and across failed refreshes.
type Snapshot struct {
	Data      any        `json:"data"`
	Loading   bool       `json:"loading"`
	Error     *ErrorInfo `json:"error"`
	FetchedAt time.Time  `json:"fetchedAt,omitzero"`
}

// Panel is the binding surface the dashboard server works with, independent
// of each binding's result type.
type Panel interface {
	ID() string
	Title() string
	Update()
	Refresh()
	SetFilters(filters map[string]string)
	Snapshot() Snapshot
	Close()
}

// Binding connects one Coordinator to its parameter sources and the shared
// refresh scheduler.
type Binding[T any] struct {
	logger   *zap.Logger
	spec     Spec
	coord    *query.Coordinator[T]
	sched    *refresh.Scheduler
	onChange func(id string, snap Snapshot)

	mu      sync.Mutex
	filters map[string]string
	deps    []string
	started bool
}

var _ Panel = (*Binding[struct{}])(nil)

// NewBinding registers the binding with the scheduler and issues the first
// fetch. onChange, when not nil, receives a snapshot after every applied
// coordinator transition; superseded results never reach it.
func NewBinding[T any](logger *zap.Logger, spec Spec, coord *query.Coordinator[T], sched *refresh.Scheduler, onChange func(id string, snap Snapshot)) *Binding[T] {
	b := &Binding[T]{
		logger:   logger.With(zap.String("panel", spec.ID)),
		spec:     spec,
		coord:    coord,
		sched:    sched,
		onChange: onChange,
		filters:  map[string]string{},
	}
	coord.OnChange(func(s query.State[T]) {
		if b.onChange != nil {
			b.onChange(spec.ID, b.toSnapshot(s))
		}
	})
	sched.Register(spec.ID, b.Refresh)
	b.Update()
	return b
}

func (b *Binding[T]) ID() string { return b.spec.ID }

func (b *Binding[T]) Title() string { return b.spec.Title }

// Update recomputes the dependency list and starts a fetch with fresh
// parameters when any identity changed. With unchanged dependencies it
// issues nothing.
func (b *Binding[T]) Update() {
	b.mu.Lock()
	filters := maps.Clone(b.filters)
	var deps []string
	if b.spec.Deps != nil {
		deps = b.spec.Deps(filters)
	} else {
		deps = []string{b.spec.Params(filters).Encode()}
	}
	if b.started && slices.Equal(deps, b.deps) {
		b.mu.Unlock()
		return
	}
	b.deps = deps
	b.started = true
	params := b.spec.Params(filters)
	b.mu.Unlock()

	b.coord.Start(params)
}

// Refresh re-issues the current query. The shared scheduler lands here on
// every tick.
func (b *Binding[T]) Refresh() {
	b.coord.Retry()
}

// SetFilters replaces the panel-local filters and revalidates.
func (b *Binding[T]) SetFilters(filters map[string]string) {
	b.mu.Lock()
	b.filters = maps.Clone(filters)
	if b.filters == nil {
		b.filters = map[string]string{}
	}
	b.mu.Unlock()
	b.Update()
}

// Filters returns a copy of the current panel-local filters.
func (b *Binding[T]) Filters() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return maps.Clone(b.filters)
}

func (b *Binding[T]) Snapshot() Snapshot {
	return b.toSnapshot(b.coord.Snapshot())
}

// Close unregisters the binding from the scheduler and retires its
// coordinator. Results still in flight are discarded when they land.
func (b *Binding[T]) Close() {
	b.sched.Unregister(b.spec.ID)
	b.coord.Teardown()
}

func (b *Binding[T]) toSnapshot(s query.State[T]) Snapshot {
	snap := Snapshot{Loading: s.Status == query.Loading}
	if s.Data != nil {
		snap.Data = s.Data
		snap.FetchedAt = s.FetchedAt
	}
	if s.Status == query.Error && s.Err != nil {
		snap.Error = &ErrorInfo{Kind: errs.Kind(s.Err), Message: s.Err.Error()}
	}
	return snap
}
