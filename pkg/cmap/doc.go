// Package cmap provides a sharded concurrent map.
//
// Keys are spread over a power-of-two number of shards, each guarded by
// its own RWMutex. Beyond plain Get/Set the map offers callbacks that run
// while the owning shard is write-locked (Compute, RemoveWhere), so a caller can inspect and mutate an entry without any
// other goroutine touching the same key in between.
//
// Usage:
//
//	m := cmap.New[int64, *entry]()
//	e, _ := m.Compute(42, func(cur *entry, ok bool) (*entry, bool) {
//		if !ok {
//			cur = newEntry()
//		}
//		cur.refs++
//		return cur, true
//	})
//
// Callbacks must not call back into the same map: shard locks are not
// reentrant.
package cmap
