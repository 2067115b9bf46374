// Package store provides the generic in-memory entity store that backs every
// SocialWave service. A store owns its entities exclusively, exports them as a
// key-ordered snapshot, and is rebuilt from that snapshot on restart.
package store

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
)

// Persistent is the type-erased view of a snapshot participant used by the
// lifecycle manager. Export and Import must round-trip exactly.
type Persistent interface {
	// Name is the section name used in snapshot images.
	Name() string
	// Len is the number of entries currently held.
	Len() int
	// Export serializes the full contents in a deterministic order.
	Export() (json.RawMessage, error)
	// Import replaces the full contents. Nil or empty input yields an empty participant.
	Import(data json.RawMessage) error
}

// Pair is one (key, value) entry of a snapshot.
type Pair[K cmp.Ordered, V any] struct {
	Key   K `json:"key"`
	Value V `json:"value"`
}

// Store is a keyed entity store. It is safe for concurrent use; callers that
// need multi-store atomicity serialize through their own facade lock.
type Store[K cmp.Ordered, V any] struct {
	name  string
	mu    sync.RWMutex
	items map[K]V
}

// New creates an empty store with the given section name.
func New[K cmp.Ordered, V any](name string) *Store[K, V] {
	return &Store[K, V]{
		name:  name,
		items: make(map[K]V),
	}
}

// Name returns the section name of the store.
func (s *Store[K, V]) Name() string { return s.name }

// Get returns the value stored under key and whether it exists.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

// Put inserts or replaces the value under key.
func (s *Store[K, V]) Put(key K, value V) {
	s.mu.Lock()
	s.items[key] = value
	s.mu.Unlock()
}

// Values returns a copy of all values in unspecified order.
func (s *Store[K, V]) Values() []V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]V, 0, len(s.items))
	for _, v := range s.items {
		out = append(out, v)
	}
	return out
}

// Range calls fn for every entry until fn returns false. fn must not call
// back into the store's mutating methods.
func (s *Store[K, V]) Range(fn func(key K, value V) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.items {
		if !fn(k, v) {
			return
		}
	}
}

// Len returns the number of entries.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Snapshot exports every entry ordered ascending by key.
func (s *Store[K, V]) Snapshot() []Pair[K, V] {
	s.mu.RLock()
	pairs := make([]Pair[K, V], 0, len(s.items))
	for k, v := range s.items {
		pairs = append(pairs, Pair[K, V]{Key: k, Value: v})
	}
	s.mu.RUnlock()

	slices.SortFunc(pairs, func(a, b Pair[K, V]) int { return cmp.Compare(a.Key, b.Key) })
	return pairs
}

// Restore replaces all contents with pairs. Later duplicates of a key win.
func (s *Store[K, V]) Restore(pairs []Pair[K, V]) {
	items := make(map[K]V, len(pairs))
	for _, p := range pairs {
		items[p.Key] = p.Value
	}
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

// Export implements Persistent.
func (s *Store[K, V]) Export() (json.RawMessage, error) {
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("store %s: failed to encode snapshot: %w", s.name, err)
	}
	return data, nil
}

// Import implements Persistent. Unknown fields in persisted values are ignored.
func (s *Store[K, V]) Import(data json.RawMessage) error {
	var pairs []Pair[K, V]
	if len(data) > 0 {
		if err := json.Unmarshal(data, &pairs); err != nil {
			return fmt.Errorf("store %s: failed to decode snapshot: %w", s.name, err)
		}
	}
	s.Restore(pairs)
	return nil
}
