package cmap

// Range iterates over all key-value pairs.
//
// The callback returns false to stop iteration.
// Locks are taken shard by shard, so the view may not be consistent.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// SetIfAbsent sets the value only if the key does not exist.
// Returns true if the value was set.
func (m *Map[K, V]) SetIfAbsent(key K, value V) bool {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; ok {
		return false
	}
	s.items[key] = value
	return true
}

// Compute runs fn with the shard write-locked. fn receives the current value
// and whether it exists, and returns the value to keep and whether to keep it.
// Returning keep=false removes the key. Compute returns fn's value and keep.
func (m *Map[K, V]) Compute(key K, fn func(current V, exists bool) (V, bool)) (V, bool) {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, exists := s.items[key]
	next, keep := fn(cur, exists)
	if keep {
		s.items[key] = next
	} else if exists {
		delete(s.items, key)
	}
	return next, keep
}

// RemoveWhere walks every shard under its write lock and removes entries
// for which pred returns true. It returns the number of entries removed.
func (m *Map[K, V]) RemoveWhere(pred func(key K, value V) bool) int {
	removed := 0
	for _, s := range m.shards {
		s.mu.Lock()
		for k, v := range s.items {
			if pred(k, v) {
				delete(s.items, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}
