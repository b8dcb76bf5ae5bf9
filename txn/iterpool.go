package txn

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/lexidb/lexidb/storage"
)

// DefaultIteratorPoolSize is the bounded pool size spec.md §5 names for
// repeatable-read snapshots ("the iterator pool is bounded (default
// 1 000)"). Requests beyond this suspend on iteratorPool.acquire until a
// slot frees up, via golang.org/x/sync/semaphore.
const DefaultIteratorPoolSize = 1000

// iteratorPool hands out iterators over a single repeatable-read snapshot,
// bounding how many are open concurrently. Unlike a pool of reusable
// objects, each acquire opens a fresh cursor against the shared snapshot
// transaction (bbolt transactions support any number of concurrent
// cursors); what's actually bounded is concurrency, not cursor reuse.
type iteratorPool struct {
	snap storage.ReadView
	sem  *semaphore.Weighted
}

func newIteratorPool(snap storage.ReadView, size int64) *iteratorPool {
	if size <= 0 {
		size = DefaultIteratorPoolSize
	}
	return &iteratorPool{snap: snap, sem: semaphore.NewWeighted(size)}
}

// acquire blocks until a pool slot is free (or ctx is done), then returns a
// fresh iterator over the pool's snapshot plus a release func that must be
// called exactly once.
func (p *iteratorPool) acquire(ctx context.Context) (storage.Iterator, func(), error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, fmt.Errorf("txn: iterator pool: %w", err)
	}
	it, err := p.snap.Iterator()
	if err != nil {
		p.sem.Release(1)
		return nil, nil, fmt.Errorf("txn: iterator pool: open iterator: %w", err)
	}
	released := false
	release := func() {
		if released {
			return
		}
		released = true
		it.Close()
		p.sem.Release(1)
	}
	return it, release, nil
}
