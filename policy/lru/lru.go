// Package lru implements the LRU eviction policy.
package lru

import "github.com/sineshashi/sinecache/policy"

// node is an element of the recency list. Head is most recently used,
// tail is the eviction candidate.
type node[K comparable] struct {
	key  K
	prev *node[K]
	next *node[K]
}

// Policy is a classic move-to-front Least-Recently-Used policy: both reads
// and writes promote the key to the head, Evict pops the tail.
//
// The list is intrusive and pointer-linked with a map for O(1) lookup,
// so every operation is O(1).
//
// Policy doubles as the per-frequency bucket inside the LFU policy, which
// is why Len is part of its surface.
type Policy[K comparable] struct {
	nodes map[K]*node[K]
	head  *node[K] // MRU
	tail  *node[K] // LRU
}

// New constructs an empty LRU policy.
func New[K comparable]() *Policy[K] {
	return &Policy[K]{nodes: make(map[K]*node[K])}
}

// OnGet promotes k to MRU. Unknown keys are ignored.
func (p *Policy[K]) OnGet(k K) {
	if n, ok := p.nodes[k]; ok {
		p.moveToFront(n)
	}
}

// OnSet inserts k at MRU, or re-links an existing key at MRU (writes count
// as recent use).
func (p *Policy[K]) OnSet(k K) {
	if n, ok := p.nodes[k]; ok {
		p.moveToFront(n)
		return
	}
	n := &node[K]{key: k}
	p.pushFront(n)
	p.nodes[k] = n
}

// Evict unlinks and returns the tail (least recently used) key.
func (p *Policy[K]) Evict() (k K, ok bool) {
	t := p.tail
	if t == nil {
		var zero K
		return zero, false
	}
	p.unlink(t)
	delete(p.nodes, t.key)
	return t.key, true
}

// Remove unlinks k if present.
func (p *Policy[K]) Remove(k K) {
	if n, ok := p.nodes[k]; ok {
		p.unlink(n)
		delete(p.nodes, k)
	}
}

// RecordsReads reports true: recency depends on reads, so replay needs Get
// records to rebuild the same order.
func (p *Policy[K]) RecordsReads() bool { return true }

// Len returns the number of tracked keys.
func (p *Policy[K]) Len() int { return len(p.nodes) }

// ---- list ops ----

// pushFront inserts n at MRU in O(1).
func (p *Policy[K]) pushFront(n *node[K]) {
	n.prev = nil
	n.next = p.head
	if p.head != nil {
		p.head.prev = n
	}
	p.head = n
	if p.tail == nil {
		p.tail = n
	}
}

// moveToFront promotes n to MRU in O(1).
func (p *Policy[K]) moveToFront(n *node[K]) {
	if n == p.head {
		return
	}
	p.unlink(n)
	p.pushFront(n)
}

// unlink detaches n from the list in O(1).
func (p *Policy[K]) unlink(n *node[K]) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if p.head == n {
		p.head = n.next
	}
	if p.tail == n {
		p.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

var _ policy.Policy[int] = (*Policy[int])(nil)
var _ policy.ReadRecorder = (*Policy[int])(nil)
