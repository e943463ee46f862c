package query

import "time"

// Status is a coordinator's position in its lifecycle.
type Status string

const (
	Idle    Status = "idle"
	Loading Status = "loading"
	Success Status = "success"
	Error   Status = "error"
)

// State is the latest known outcome of one logical query. Data keeps the
// last successful result while a refresh is loading and after a refresh
// fails, so panels can keep rendering stale-but-valid values instead of
// blanking.
type State[T any] struct {
	Key        Key
	Status     Status
	Data       *T
	Err        error
	FetchedAt  time.Time
	Generation uint64
}
