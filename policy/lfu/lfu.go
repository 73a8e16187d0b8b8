// Package lfu implements the LFU eviction policy.
//
// Victim order is by access frequency, ties broken least-recently-used
// within the frequency. State is a key→frequency map plus one recency list
// per frequency (reusing the lru package), plus the running minimum
// frequency. OnGet and OnSet are O(1). When Evict or Remove empties the
// lowest-frequency bucket, leastFreq steps forward one frequency at a time
// to the next occupied bucket, so those two calls also cost the gap
// between the old and the new minimum frequency.
package lfu

import (
	"github.com/sineshashi/sinecache/policy"
	"github.com/sineshashi/sinecache/policy/lru"
)

// Policy evicts the least frequently used key; among equally frequent keys
// the least recently accessed one goes first.
type Policy[K comparable] struct {
	// freqs maps each tracked key to its access count.
	freqs map[K]int

	// buckets holds, per frequency, the recency order of keys currently at
	// that frequency (head = most recently accessed). Emptied buckets are
	// dropped from the map.
	buckets map[int]*lru.Policy[K]

	// leastFreq is the minimum frequency among tracked keys; 0 when the
	// policy is empty.
	leastFreq int
}

// New constructs an empty LFU policy.
func New[K comparable]() *Policy[K] {
	return &Policy[K]{
		freqs:   make(map[K]int),
		buckets: make(map[int]*lru.Policy[K]),
	}
}

// OnGet promotes k to the next frequency bucket. Unknown keys are ignored.
func (p *Policy[K]) OnGet(k K) {
	if _, ok := p.freqs[k]; ok {
		p.recordAccess(k)
	}
}

// OnSet starts tracking a new key at frequency 1, or counts an overwrite
// of an existing key as one more access.
func (p *Policy[K]) OnSet(k K) {
	if _, ok := p.freqs[k]; !ok {
		p.freqs[k] = 0
		p.leastFreq = 0 // a brand-new key is the new minimum
	}
	p.recordAccess(k)
}

// Evict pops the least recently used key of the lowest-frequency bucket.
func (p *Policy[K]) Evict() (k K, ok bool) {
	if p.leastFreq == 0 {
		var zero K
		return zero, false
	}
	b := p.buckets[p.leastFreq]
	k, ok = b.Evict()
	if !ok {
		var zero K
		return zero, false
	}
	delete(p.freqs, k)
	if b.Len() == 0 {
		delete(p.buckets, p.leastFreq)
	}
	if len(p.freqs) == 0 {
		p.leastFreq = 0
	} else {
		p.advanceLeastFreq()
	}
	return k, true
}

// Remove drops k and its frequency bookkeeping. Unknown keys are a no-op.
func (p *Policy[K]) Remove(k K) {
	f, ok := p.freqs[k]
	if !ok {
		return
	}
	delete(p.freqs, k)
	if b, ok := p.buckets[f]; ok {
		b.Remove(k)
		if b.Len() == 0 {
			delete(p.buckets, f)
		}
	}
	if len(p.freqs) == 0 {
		p.leastFreq = 0
		return
	}
	p.advanceLeastFreq()
}

// RecordsReads reports true: frequency depends on reads, so replay needs
// Get records to rebuild the same counts.
func (p *Policy[K]) RecordsReads() bool { return true }

// Len returns the number of tracked keys.
func (p *Policy[K]) Len() int { return len(p.freqs) }

// recordAccess moves k from its current bucket to the head of the next
// frequency's bucket, keeping leastFreq in step. The caller guarantees k
// is tracked.
func (p *Policy[K]) recordAccess(k K) {
	f := p.freqs[k]
	if f != 0 {
		if b, ok := p.buckets[f]; ok {
			b.Remove(k)
			if b.Len() == 0 {
				delete(p.buckets, f)
				if f == p.leastFreq {
					p.leastFreq++
				}
			}
		}
	} else {
		// Fresh insertion: the key leaves the conceptual frequency-0 state
		// and the minimum becomes 1.
		p.leastFreq++
	}
	f++
	p.freqs[k] = f
	b, ok := p.buckets[f]
	if !ok {
		b = lru.New[K]()
		p.buckets[f] = b
	}
	b.OnSet(k)
}

// advanceLeastFreq walks leastFreq forward to the next occupied bucket.
// The caller guarantees at least one key is tracked.
func (p *Policy[K]) advanceLeastFreq() {
	for {
		if b, ok := p.buckets[p.leastFreq]; ok && b.Len() > 0 {
			return
		}
		p.leastFreq++
	}
}

var _ policy.Policy[int] = (*Policy[int])(nil)
var _ policy.ReadRecorder = (*Policy[int])(nil)
