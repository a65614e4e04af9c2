package sync

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 32

// ShardedMap is a string-keyed map split across 32 mutex-guarded shards.
// Keys are assigned to shards by xxhash, so callers touching different keys
// rarely contend while callers touching the same key are serialized.
type ShardedMap[V any] struct {
	shards [shardCount]shard[V]
}

type shard[V any] struct {
	mu    sync.Mutex
	items map[string]V
}

// NewShardedMap creates an empty ShardedMap.
func NewShardedMap[V any]() *ShardedMap[V] {
	m := &ShardedMap[V]{}
	for i := range m.shards {
		m.shards[i].items = make(map[string]V)
	}
	return m
}

// Update runs fn with exclusive access to the value stored under key.
// fn receives the current value and whether it exists, and returns the new
// value and whether to keep it. Returning keep=false deletes the key.
func (m *ShardedMap[V]) Update(key string, fn func(current V, exists bool) (next V, keep bool)) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.items[key]
	next, keep := fn(current, exists)
	if keep {
		s.items[key] = next
		return
	}
	delete(s.items, key)
}

// Delete removes key.
func (m *ShardedMap[V]) Delete(key string) {
	s := m.shardFor(key)
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

// Len returns the number of keys across all shards.
func (m *ShardedMap[V]) Len() int {
	n := 0
	for i := range m.shards {
		m.shards[i].mu.Lock()
		n += len(m.shards[i].items)
		m.shards[i].mu.Unlock()
	}
	return n
}

// Sweep visits every entry one shard at a time and deletes the entries for
// which keep returns false. It returns the number of deleted entries.
func (m *ShardedMap[V]) Sweep(keep func(key string, v V) bool) int {
	removed := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for k, v := range s.items {
			if !keep(k, v) {
				delete(s.items, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

func (m *ShardedMap[V]) shardFor(key string) *shard[V] {
	return &m.shards[shardIndex(key)]
}

// shardIndex maps a key to a shard. Empty keys land in shard 0.
func shardIndex(key string) int {
	if key == "" {
		return 0
	}
	return int(xxhash.Sum64String(key) % shardCount)
}
