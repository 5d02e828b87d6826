package lockreg

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// writerWeight is the semaphore weight an exclusive holder takes. Readers
// take 1, so at most writerWeight readers can share the lock.
const writerWeight = 1 << 30

// rwLock is a reader/writer lock whose blocking acquisitions honour a
// context. Waiters are served in FIFO order, so a queued writer is not
// starved by a stream of readers.
type rwLock struct {
	sem *semaphore.Weighted
}

func newRWLock() *rwLock {
	return &rwLock{sem: semaphore.NewWeighted(writerWeight)}
}

func (l *rwLock) Lock(ctx context.Context) error  { return l.sem.Acquire(ctx, writerWeight) }
func (l *rwLock) TryLock() bool                   { return l.sem.TryAcquire(writerWeight) }
func (l *rwLock) Unlock()                         { l.sem.Release(writerWeight) }
func (l *rwLock) RLock(ctx context.Context) error { return l.sem.Acquire(ctx, 1) }
func (l *rwLock) TryRLock() bool                  { return l.sem.TryAcquire(1) }
func (l *rwLock) RUnlock()                        { l.sem.Release(1) }

// entry is one account's lock plus its pin count.
// refs is only read or written while the entry map shard is locked.
type entry struct {
	lock *rwLock
	refs int
}

func newEntry() *entry {
	return &entry{lock: newRWLock()}
}
