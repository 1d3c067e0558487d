// Package consensus exposes the authenticated (state_root, block_number,
// slot) tuple produced by a consensus-layer light client. It hides the
// sync-committee protocol entirely; callers only ever see an
// already-trusted head, never the attestations behind it.
package consensus

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dvrpc-eth/dvrpc-node/internal/proof"
)

// Adapter holds the most recently authenticated head as an atomically
// swapped immutable snapshot: the light-client update loop is the single
// writer, every RPC request is a concurrent reader, and no reader ever
// observes a torn root/block/slot triple.
type Adapter struct {
	head atomic.Pointer[proof.Head]

	syncOnce sync.Once
	synced   chan struct{}
}

// New returns an Adapter with no authenticated head yet.
func New() *Adapter {
	return &Adapter{synced: make(chan struct{})}
}

// Update publishes a new authenticated head. Slot must be monotonically
// non-decreasing across calls; callers (the light-client sync loop) are
// responsible for that ordering since Adapter itself does not buffer or
// reorder updates.
func (a *Adapter) Update(h proof.Head) {
	a.head.Store(&h)
	a.syncOnce.Do(func() { close(a.synced) })
}

// Current returns the most recent authenticated head and whether one has
// ever been published. Before first sync it returns the zero Head and
// false.
func (a *Adapter) Current() (proof.Head, bool) {
	p := a.head.Load()
	if p == nil {
		return proof.Head{}, false
	}
	return *p, true
}

// Synced reports whether a head has ever been published, without
// blocking — used by the /health handler.
func (a *Adapter) Synced() bool {
	select {
	case <-a.synced:
		return true
	default:
		return false
	}
}

// WaitSynced blocks until the first authenticated head is available or
// ctx is cancelled.
func (a *Adapter) WaitSynced(ctx context.Context) error {
	select {
	case <-a.synced:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
