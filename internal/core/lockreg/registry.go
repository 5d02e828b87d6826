package lockreg

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
	"github.com/yndnr/ledgermesh-go/pkg/cmap"
)

// Defaults used when no option overrides them.
const (
	DefaultMaxEntries   = 100
	DefaultRetryCeiling = 100
	DefaultBackoffBase  = 50 * time.Microsecond
	DefaultBackoffMax   = 2 * time.Millisecond
)

// Registry maps account ids to reader/writer locks.
type Registry struct {
	entries      *cmap.Map[domain.AccountID, *entry]
	maxEntries   int
	retryCeiling int
	backoffBase  time.Duration
	backoffMax   time.Duration

	sweepMu sync.Mutex
	gate    gate

	sweeps  atomic.Uint64
	evicted atomic.Uint64

	observer Observer
	log      logger.Logger

	// beforeEvict runs inside a sweep after the barrier is raised.
	beforeEvict func()
}

// Option configures a Registry.
type Option func(*Registry)

// WithMaxEntries sets the entry count above which Acquire triggers a sweep.
func WithMaxEntries(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxEntries = n
		}
	}
}

// WithShards sets the shard count of the entry map (power of two).
func WithShards(n int) Option {
	return func(r *Registry) {
		r.entries = cmap.NewWithShards[domain.AccountID, *entry](n)
	}
}

// WithRetryCeiling sets how many times WithPair retries before giving up.
func WithRetryCeiling(n int) Option {
	return func(r *Registry) {
		if n >= 0 {
			r.retryCeiling = n
		}
	}
}

// WithRetryBackoff sets the base and cap of the delay between pair attempts.
// A zero base disables sleeping; attempts then only yield the processor.
func WithRetryBackoff(base, limit time.Duration) Option {
	return func(r *Registry) {
		r.backoffBase = base
		r.backoffMax = limit
	}
}

// WithObserver installs an event observer (metrics).
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		maxEntries:   DefaultMaxEntries,
		retryCeiling: DefaultRetryCeiling,
		backoffBase:  DefaultBackoffBase,
		backoffMax:   DefaultBackoffMax,
		observer:     nopObserver{},
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.entries == nil {
		r.entries = cmap.New[domain.AccountID, *entry]()
	}
	if r.backoffMax < r.backoffBase {
		r.backoffMax = r.backoffBase
	}
	r.log = r.log.With("component", "lockreg")
	return r
}

// Acquire returns a pinned handle to the lock for id, creating the lock if
// needed. The entry cannot be evicted until the handle is released.
//
// Acquire waits while a sweep is running and fails with ErrCancelled if ctx
// ends first.
func (r *Registry) Acquire(ctx context.Context, id domain.AccountID) (*Handle, error) {
	if err := r.gate.wait(ctx); err != nil {
		return nil, cancelled(err)
	}

	if r.entries.Count() > r.maxEntries {
		r.trySweep()
	}

	created := false
	e, _ := r.entries.Compute(id, func(cur *entry, ok bool) (*entry, bool) {
		if !ok {
			cur = newEntry()
			created = true
		}
		cur.refs++
		return cur, true
	})
	if created {
		r.observer.EntryCreated()
	}
	return &Handle{id: id, e: e, r: r}, nil
}

func (r *Registry) unpin(id domain.AccountID, e *entry) {
	r.entries.Compute(id, func(cur *entry, ok bool) (*entry, bool) {
		if ok && cur == e && cur.refs > 0 {
			cur.refs--
		}
		return cur, ok
	})
}

// trySweep runs a sweep unless one is already in progress.
func (r *Registry) trySweep() bool {
	if !r.sweepMu.TryLock() {
		return false
	}
	defer r.sweepMu.Unlock()
	r.sweep()
	return true
}

// Sweep evicts every unpinned entry and returns how many were removed.
// It waits for a sweep already in progress to finish first.
func (r *Registry) Sweep() int {
	r.sweepMu.Lock()
	defer r.sweepMu.Unlock()
	return r.sweep()
}

func (r *Registry) sweep() int {
	r.gate.close()
	defer r.gate.open()

	start := time.Now()
	if r.beforeEvict != nil {
		r.beforeEvict()
	}

	evicted := r.entries.RemoveWhere(func(_ domain.AccountID, e *entry) bool {
		return e.refs == 0
	})
	remaining := r.entries.Count()
	took := time.Since(start)

	r.sweeps.Add(1)
	r.evicted.Add(uint64(evicted))
	r.observer.Swept(evicted, remaining, took)
	r.log.Info("lock registry swept",
		"evicted", evicted,
		"remaining", remaining,
		"duration_ms", took.Milliseconds())
	return evicted
}

// Len returns the number of entries currently held.
func (r *Registry) Len() int {
	return r.entries.Count()
}

// Sweeping reports whether a sweep is in progress.
func (r *Registry) Sweeping() bool {
	return r.gate.isClosed()
}

// Stats is a point-in-time view of the registry.
type Stats struct {
	Entries    int    `json:"entries"`
	Pinned     int    `json:"pinned"`
	MaxEntries int    `json:"max_entries"`
	Sweeping   bool   `json:"sweeping"`
	Sweeps     uint64 `json:"sweeps"`
	Evicted    uint64 `json:"evicted"`
}

// Stats returns registry statistics. Counts are gathered shard by shard.
func (r *Registry) Stats() Stats {
	s := Stats{
		MaxEntries: r.maxEntries,
		Sweeping:   r.Sweeping(),
		Sweeps:     r.sweeps.Load(),
		Evicted:    r.evicted.Load(),
	}
	// Range holds only the shard read lock; refs writers need the write lock.
	r.entries.Range(func(_ domain.AccountID, e *entry) bool {
		s.Entries++
		if e.refs > 0 {
			s.Pinned++
		}
		return true
	})
	return s
}

// cancelled maps a context error to ErrCancelled.
func cancelled(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrCancelled.WithDetails("deadline exceeded").WithCause(err)
	}
	return domain.ErrCancelled.WithCause(err)
}
