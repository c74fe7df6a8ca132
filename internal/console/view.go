// Package console holds the per-page state of the local console: the last
// loaded snapshot, the error banner and pagination.
package console

import (
	"context"
	"sync"
	"time"

	"github.com/dukerupert/backoffice/internal/api"
)

// State is what a page renders.
type State[T any] struct {
	Data      T         `json:"data"`
	Loaded    bool      `json:"loaded"`
	Loading   bool      `json:"loading"`
	Error     string    `json:"error,omitempty"`
	FetchedAt time.Time `json:"fetched_at,omitzero"`
}

// View keeps the last successful snapshot of a page. A failed fetch only
// sets the error banner; the previous data stays on screen. Each fetch gets
// a sequence number and a response older than the last applied one is
// dropped.
type View[T any] struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
	state   State[T]
	now     func() time.Time
}

func NewView[T any]() *View[T] {
	return &View[T]{now: time.Now}
}

// Begin registers a new fetch and returns its sequence number.
func (v *View[T]) Begin() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.issued++
	v.state.Loading = true
	return v.issued
}

// Finish applies the result of fetch seq. It reports false when the result
// was discarded because a newer fetch already landed.
func (v *View[T]) Finish(seq uint64, data T, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if seq <= v.applied {
		return false
	}
	v.applied = seq
	v.state.Loading = v.applied < v.issued

	if err != nil {
		v.state.Error = api.Message(err)
		return true
	}
	v.state.Data = data
	v.state.Loaded = true
	v.state.Error = ""
	v.state.FetchedAt = v.now().UTC()
	return true
}

// Load runs fetch as a new request and returns the resulting state.
func (v *View[T]) Load(ctx context.Context, fetch func(context.Context) (T, error)) (State[T], error) {
	seq := v.Begin()
	data, err := fetch(ctx)
	v.Finish(seq, data, err)
	return v.Snapshot(), err
}

// Fail shows err in the banner without touching the data, e.g. after a
// rejected mutation.
func (v *View[T]) Fail(err error) {
	if err == nil {
		return
	}
	v.mu.Lock()
	v.state.Error = api.Message(err)
	v.mu.Unlock()
}

func (v *View[T]) Snapshot() State[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}
