// Package accessor implements the shared fetch pipeline every data accessor
// uses: read the cache, else run the throttled upstream fetch, write the
// result back, and maintain a live snapshot for the dashboard.
package accessor

import (
	"context"
	"sync"
	"time"

	"github.com/linqiu/folio/internal/models"
)

// FetchFunc performs the cache-or-upstream fetch for one key.
type FetchFunc[T any] func(ctx context.Context, key string, force bool) (T, error)

// Snapshot is the live state of an accessor for its most recent key.
type Snapshot[T any] struct {
	Key       string
	Status    models.FetchStatus
	Items     T
	Err       string
	UpdatedAt time.Time
}

// Accessor wraps a FetchFunc with the Idle → Loading → {Ready, Failed}
// state machine. Each Fetch is tagged with a generation token; a result
// arriving after a newer Fetch began is still returned to its own caller
// but is not applied to the snapshot, so a superseded selection can never
// clobber the current one.
type Accessor[T any] struct {
	fetch FetchFunc[T]
	now   func() time.Time

	mu   sync.Mutex
	gen  uint64
	snap Snapshot[T]
}

// New creates an idle accessor around fetch.
func New[T any](fetch FetchFunc[T]) *Accessor[T] {
	a := &Accessor[T]{
		fetch: fetch,
		now:   time.Now,
	}
	a.snap.Status = models.FetchIdle
	return a
}

// Fetch runs the pipeline for key and returns the result to the caller.
// The live snapshot transitions to Loading at submission and to Ready or
// Failed on completion, unless a newer Fetch superseded this one, in
// which case the completion is discarded.
func (a *Accessor[T]) Fetch(ctx context.Context, key string, force bool) (T, error) {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	a.snap.Key = key
	a.snap.Status = models.FetchLoading
	a.snap.Err = ""
	a.mu.Unlock()

	items, err := a.fetch(ctx, key, force)

	a.mu.Lock()
	if a.gen == gen {
		a.snap.UpdatedAt = a.now()
		if err != nil {
			a.snap.Status = models.FetchFailed
			a.snap.Err = err.Error()
		} else {
			a.snap.Status = models.FetchReady
			a.snap.Items = items
		}
	}
	a.mu.Unlock()

	return items, err
}

// Start runs Fetch in the background, for fire-and-forget preloads. The
// outcome lands in the snapshot (generation rules apply).
func (a *Accessor[T]) Start(ctx context.Context, key string, force bool) {
	go func() {
		_, _ = a.Fetch(ctx, key, force)
	}()
}

// Snapshot returns the current live state.
func (a *Accessor[T]) Snapshot() Snapshot[T] {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snap
}
