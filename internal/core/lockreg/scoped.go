package lockreg

import (
	"context"
	"time"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
)

// WithWrite runs fn while holding the exclusive lock for id.
func (r *Registry) WithWrite(ctx context.Context, id domain.AccountID, fn func() error) error {
	h, err := r.Acquire(ctx, id)
	if err != nil {
		return err
	}
	defer h.Release()

	start := time.Now()
	if err := h.Lock(ctx); err != nil {
		return err
	}
	defer h.Unlock()
	r.observer.LockAcquired(ModeWrite, time.Since(start))

	return fn()
}

// WithRead runs fn while holding the shared lock for id.
func (r *Registry) WithRead(ctx context.Context, id domain.AccountID, fn func() error) error {
	h, err := r.Acquire(ctx, id)
	if err != nil {
		return err
	}
	defer h.Release()

	start := time.Now()
	if err := h.RLock(ctx); err != nil {
		return err
	}
	defer h.RUnlock()
	r.observer.LockAcquired(ModeRead, time.Since(start))

	return fn()
}
