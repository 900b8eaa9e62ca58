package prototype

import (
	"context"
	"fmt"
	"sync/atomic"

	"ai-deskmate-be/pkg/routing"
)

// Store hands out the active Snapshot and swaps in refreshed ones. Readers
// never block: each request pins the snapshot it started with and keeps it
// for the whole turn even if a refresh lands mid-flight.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore requires a valid initial snapshot; a router with no catalog must
// not start.
func NewStore(initial *Snapshot) (*Store, error) {
	if initial == nil {
		return nil, fmt.Errorf("initial snapshot is nil")
	}
	st := &Store{}
	st.current.Store(initial)
	return st, nil
}

// Snapshot returns the currently active snapshot.
func (st *Store) Snapshot() *Snapshot {
	return st.current.Load()
}

// Swap atomically replaces the active snapshot. The old snapshot stays valid
// for requests already holding it.
func (st *Store) Swap(next *Snapshot) error {
	if next == nil {
		return fmt.Errorf("refusing to swap in a nil snapshot")
	}
	st.current.Store(next)
	return nil
}

// Search implements the matcher's Searcher against the active snapshot.
// Purely in-memory; ctx is accepted for interface compatibility with remote
// search backends.
func (st *Store) Search(ctx context.Context, vector []float32, excluding map[routing.Category]bool, topK int) ([]routing.Candidate, error) {
	return st.Snapshot().Search(vector, excluding, topK)
}
