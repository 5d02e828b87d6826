package lockreg

import (
	"context"
	"math/rand/v2"
	"runtime"
	"time"
)

// pairBackoff returns a full-jitter exponential delay for the given retry
// attempt: a random duration in [0, min(base*2^attempt, limit)).
func pairBackoff(base, limit time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := base << attempt
	if d <= 0 || d > limit {
		d = limit
	}
	if d <= 0 {
		return 0
	}
	return rand.N(d)
}

// sleepCtx sleeps for d or until ctx is done. A zero delay still yields the
// processor so the competing holder can make progress.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			runtime.Gosched()
			return nil
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
