package lockreg

import (
	"context"
	"sync/atomic"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
)

// Handle is a pinned reference to one account's lock.
// Callers must call Release exactly once when done; extra calls are ignored.
type Handle struct {
	id       domain.AccountID
	e        *entry
	r        *Registry
	released atomic.Bool
}

// ID returns the account id the handle refers to.
func (h *Handle) ID() domain.AccountID { return h.id }

// Lock takes the exclusive lock, waiting until it is free or ctx ends.
func (h *Handle) Lock(ctx context.Context) error {
	if err := h.e.lock.Lock(ctx); err != nil {
		return cancelled(err)
	}
	return nil
}

// TryLock takes the exclusive lock only if it is immediately available.
func (h *Handle) TryLock() bool { return h.e.lock.TryLock() }

// Unlock releases the exclusive lock.
func (h *Handle) Unlock() { h.e.lock.Unlock() }

// RLock takes the shared lock, waiting until no writer holds or awaits it.
func (h *Handle) RLock(ctx context.Context) error {
	if err := h.e.lock.RLock(ctx); err != nil {
		return cancelled(err)
	}
	return nil
}

// RUnlock releases the shared lock.
func (h *Handle) RUnlock() { h.e.lock.RUnlock() }

// Release unpins the entry, making it eligible for eviction once no other
// handle pins it. The lock itself must already be released.
func (h *Handle) Release() {
	if h.released.CompareAndSwap(false, true) {
		h.r.unpin(h.id, h.e)
	}
}
