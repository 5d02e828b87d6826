// Package lockreg provides per-account reader/writer locks for the ledger.
//
// A Registry hands out one lock per account id, creating it on first use.
// Callers pin an entry with Acquire, lock it through the returned Handle
// and unpin it with Release; the scoped helpers WithWrite, WithRead and
// WithPair do all three.
//
// The registry is bounded. When it grows past its configured size the next
// Acquire runs a sweep that evicts every unpinned entry. Only one sweep runs
// at a time; concurrent callers that lose the race skip it. While a sweep
// runs, new acquisitions park on a barrier and resume when it finishes.
// Pin counts are read and written under the owning shard lock of the entry
// map, so an entry is never evicted while any goroutine holds, waits for or
// is about to take its lock.
//
// WithPair takes two exclusive locks without deadlock: the lower account id
// is always tried first and both locks are taken with non-blocking attempts,
// backing off between rounds up to a retry ceiling.
package lockreg
