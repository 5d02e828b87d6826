package lockreg

import "time"

// Mode is the kind of lock being taken.
type Mode string

const (
	ModeRead  Mode = "read"
	ModeWrite Mode = "write"
	ModePair  Mode = "pair"
)

// Observer receives registry events. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	// EntryCreated is called when Acquire creates a new entry.
	EntryCreated()
	// LockAcquired is called once a lock is held, with the time spent waiting.
	LockAcquired(mode Mode, wait time.Duration)
	// PairFailed is called when a pair acquisition gives up after attempts rounds.
	PairFailed(attempts int)
	// Swept is called after each sweep.
	Swept(evicted, remaining int, took time.Duration)
}

type nopObserver struct{}

func (nopObserver) EntryCreated()                    {}
func (nopObserver) LockAcquired(Mode, time.Duration) {}
func (nopObserver) PairFailed(int)                   {}
func (nopObserver) Swept(int, int, time.Duration)    {}
