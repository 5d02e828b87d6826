package lockreg

import (
	"context"
	"fmt"
	"time"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
)

// WithPair runs fn while holding the exclusive locks of both a and b.
//
// Locks are taken in ascending id order regardless of argument order, using
// non-blocking attempts only. A round that gets the first lock but not the
// second gives the first back before backing off. After RetryCeiling failed
// retries WithPair returns ErrRetriesExhausted. a and b must differ.
func (r *Registry) WithPair(ctx context.Context, a, b domain.AccountID, fn func() error) error {
	if a == b {
		return domain.ErrInvalidAccountNumber.WithDetails(fmt.Sprintf("source and destination are both %s", a))
	}
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}

	first, err := r.Acquire(ctx, lo)
	if err != nil {
		return err
	}
	defer first.Release()

	second, err := r.Acquire(ctx, hi)
	if err != nil {
		return err
	}
	defer second.Release()

	start := time.Now()
	if err := r.lockPair(ctx, first, second); err != nil {
		return err
	}
	defer first.Unlock()
	defer second.Unlock()
	r.observer.LockAcquired(ModePair, time.Since(start))

	return fn()
}

// lockPair makes up to retryCeiling+1 attempts to take both locks.
func (r *Registry) lockPair(ctx context.Context, first, second *Handle) error {
	for attempt := 0; ; attempt++ {
		if first.TryLock() {
			if second.TryLock() {
				return nil
			}
			first.Unlock()
		}

		if attempt >= r.retryCeiling {
			r.observer.PairFailed(attempt + 1)
			r.log.Warn("pair lock retries exhausted",
				"first", first.ID().String(),
				"second", second.ID().String(),
				"attempts", attempt+1)
			return domain.ErrRetriesExhausted.WithDetails(
				fmt.Sprintf("accounts %s and %s after %d attempts", first.ID(), second.ID(), attempt+1))
		}
		if err := sleepCtx(ctx, pairBackoff(r.backoffBase, r.backoffMax, attempt)); err != nil {
			return cancelled(err)
		}
	}
}
