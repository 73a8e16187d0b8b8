// Package noeviction provides the formal no-op eviction policy: the store
// never evicts and grows without bound.
package noeviction

import "github.com/sineshashi/sinecache/policy"

// Policy ignores every notification and never proposes a victim.
type Policy[K comparable] struct{}

// New constructs the no-op policy.
func New[K comparable]() *Policy[K] { return &Policy[K]{} }

func (*Policy[K]) OnGet(K) {}

func (*Policy[K]) OnSet(K) {}

// Evict always reports no victim.
func (*Policy[K]) Evict() (k K, ok bool) {
	var zero K
	return zero, false
}

func (*Policy[K]) Remove(K) {}

// RecordsReads reports false: replay does not depend on read order when
// nothing is ever evicted.
func (*Policy[K]) RecordsReads() bool { return false }

var _ policy.Policy[int] = (*Policy[int])(nil)
var _ policy.ReadRecorder = (*Policy[int])(nil)
