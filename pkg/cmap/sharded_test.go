package cmap

import (
	"fmt"
	"sync"
	"testing"
)

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},
		{-1, DefaultShardCount},
		{3, DefaultShardCount},
		{1, 1},
		{4, 4},
		{32, 32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewWithShards[int64, int](tt.input)
			if len(m.shards) != tt.expected {
				t.Errorf("NewWithShards(%d) shard count = %d, want %d",
					tt.input, len(m.shards), tt.expected)
			}
		})
	}
}

func TestSetGet(t *testing.T) {
	m := New[int64, string]()

	m.Set(1, "one")
	m.Set(2, "two")
	m.Set(1, "uno")

	if val, ok := m.Get(1); !ok || val != "uno" {
		t.Errorf("Get(1) = (%q, %v), want (\"uno\", true)", val, ok)
	}
	if _, ok := m.Get(3); ok {
		t.Error("Get(3) should report a missing key")
	}
	if m.Count() != 2 {
		t.Errorf("Count() = %d, want 2", m.Count())
	}
}

func TestShardSpread(t *testing.T) {
	m := NewWithShards[int64, int](4)
	for i := int64(0); i < 100; i++ {
		m.Set(i, int(i))
	}

	used, total := 0, 0
	for _, s := range m.shards {
		if n := len(s.items); n > 0 {
			used++
			total += n
		}
	}
	if total != 100 {
		t.Errorf("items across shards = %d, want 100", total)
	}
	if used < 2 {
		t.Errorf("keys landed in %d shard(s), want them spread", used)
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int64, int]()
	var wg sync.WaitGroup
	const workers, ops = 50, 500

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(base int64) {
			defer wg.Done()
			for j := int64(0); j < ops; j++ {
				key := base*ops + j
				m.Set(key, int(j))
				m.Get(key)
			}
		}(int64(i))
	}
	wg.Wait()

	if m.Count() != workers*ops {
		t.Errorf("Count() = %d, want %d", m.Count(), workers*ops)
	}
}
