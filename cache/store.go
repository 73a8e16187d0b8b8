package cache

import (
	"github.com/sineshashi/sinecache/policy"
	"github.com/sineshashi/sinecache/policy/lru"
)

// entry boxes a stored value so GetMut can hand out a stable pointer into
// the store (map values themselves are not addressable).
type entry[V any] struct {
	val V
}

// Store is the synchronous keyed store: a key→entry map plus an owned
// eviction policy and a capacity bound. It is NOT safe for concurrent use;
// wrap it in a Cache (see New) for that. It is exported for single-level
// embedding and as the reference model in equivalence tests.
//
// Invariant: Size() <= maxSize at every observable point (for maxSize > 0
// and a policy that actually evicts). The policy's membership set equals
// the store's key set after every operation.
type Store[K comparable, V any] struct {
	maxSize int
	entries map[K]*entry[V]
	pol     policy.Policy[K]

	// onEvict observes policy evictions (victim key and value). Set by the
	// owning facade after replay so recovery is silent.
	onEvict func(k K, v V)
}

// NewStore constructs a store with the given capacity and policy.
// maxSize <= 0 means unbounded; a nil policy defaults to LRU.
func NewStore[K comparable, V any](maxSize int, pol policy.Policy[K]) *Store[K, V] {
	if pol == nil {
		pol = lru.New[K]()
	}
	return &Store[K, V]{
		maxSize: maxSize,
		entries: make(map[K]*entry[V]),
		pol:     pol,
	}
}

// Get returns the value for k and notifies the policy of the read.
func (s *Store[K, V]) Get(k K) (V, bool) {
	if e, ok := s.entries[k]; ok {
		s.pol.OnGet(k)
		return e.val, true
	}
	var zero V
	return zero, false
}

// GetMut returns a pointer to the stored value for in-place updates and
// notifies the policy of the read. The pointer stays valid until the entry
// is removed or evicted.
func (s *Store[K, V]) GetMut(k K) (*V, bool) {
	if e, ok := s.entries[k]; ok {
		s.pol.OnGet(k)
		return &e.val, true
	}
	return nil, false
}

// Put inserts or overwrites k. An overwrite never triggers eviction and
// never changes the size; a new key at capacity first evicts the policy's
// victim. A policy that declines to evict (NoEviction) lets the store
// grow.
func (s *Store[K, V]) Put(k K, v V) {
	if _, exists := s.entries[k]; !exists && s.maxSize > 0 && len(s.entries) >= s.maxSize {
		if victim, ok := s.pol.Evict(); ok {
			if e, present := s.entries[victim]; present {
				delete(s.entries, victim)
				if s.onEvict != nil {
					s.onEvict(victim, e.val)
				}
			}
		}
	}
	if e, ok := s.entries[k]; ok {
		e.val = v
	} else {
		s.entries[k] = &entry[V]{val: v}
	}
	s.pol.OnSet(k)
}

// Remove drops k from the map and from the policy. The policy is notified
// even when the map did not contain k (policies tolerate unknown keys).
func (s *Store[K, V]) Remove(k K) {
	delete(s.entries, k)
	s.pol.Remove(k)
}

// Contains reports whether k is present. Pure observer: the policy is not
// touched.
func (s *Store[K, V]) Contains(k K) bool {
	_, ok := s.entries[k]
	return ok
}

// Size returns the number of resident entries. Pure observer.
func (s *Store[K, V]) Size() int { return len(s.entries) }
