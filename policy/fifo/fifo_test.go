package fifo

import (
	"fmt"
	"testing"
)

// Eviction order of keys never removed equals insertion order.
func TestFIFO_InsertionOrder(t *testing.T) {
	t.Parallel()

	p := New[string]()
	p.OnSet("a")
	p.OnSet("b")
	p.OnSet("c")

	for _, want := range []string{"a", "b", "c"} {
		k, ok := p.Evict()
		if !ok || k != want {
			t.Fatalf("Evict = (%q, %v), want (%q, true)", k, ok, want)
		}
	}
	if k, ok := p.Evict(); ok {
		t.Fatalf("Evict on empty policy returned %q", k)
	}
}

// Overwriting an existing key must keep its original queue position.
func TestFIFO_OverwriteDoesNotRefresh(t *testing.T) {
	t.Parallel()

	p := New[string]()
	p.OnSet("k1")
	p.OnSet("k2")
	p.OnSet("k1") // overwrite: no re-queue

	if k, ok := p.Evict(); !ok || k != "k1" {
		t.Fatalf("first eviction = (%q, %v), want k1", k, ok)
	}
	if k, ok := p.Evict(); !ok || k != "k2" {
		t.Fatalf("second eviction = (%q, %v), want k2", k, ok)
	}
}

// Removed keys are tombstoned and skipped during eviction.
func TestFIFO_RemoveTombstones(t *testing.T) {
	t.Parallel()

	p := New[string]()
	p.OnSet("a")
	p.OnSet("b")
	p.OnSet("c")
	p.Remove("b")

	if k, ok := p.Evict(); !ok || k != "a" {
		t.Fatalf("Evict = (%q, %v), want a", k, ok)
	}
	if k, ok := p.Evict(); !ok || k != "c" {
		t.Fatalf("Evict = (%q, %v), want c (b was removed)", k, ok)
	}
	if _, ok := p.Evict(); ok {
		t.Fatal("policy must be empty")
	}
}

// Remove + re-insert gives the key a fresh queue position; the stale entry
// is cancelled by exactly one tombstone.
func TestFIFO_ReinsertAfterRemove(t *testing.T) {
	t.Parallel()

	p := New[string]()
	p.OnSet("a")
	p.OnSet("b")
	p.Remove("a")
	p.OnSet("a") // now newer than b

	if k, ok := p.Evict(); !ok || k != "b" {
		t.Fatalf("Evict = (%q, %v), want b", k, ok)
	}
	if k, ok := p.Evict(); !ok || k != "a" {
		t.Fatalf("Evict = (%q, %v), want a", k, ok)
	}
	if _, ok := p.Evict(); ok {
		t.Fatal("policy must be empty")
	}
}

// Remove of an unknown key is a no-op, and reads never reorder.
func TestFIFO_RemoveUnknownAndGets(t *testing.T) {
	t.Parallel()

	p := New[string]()
	p.Remove("ghost")

	p.OnSet("a")
	p.OnSet("b")
	p.OnGet("b") // must not promote b ahead of a
	p.OnGet("b")

	if k, ok := p.Evict(); !ok || k != "a" {
		t.Fatalf("Evict = (%q, %v), want a (reads must not reorder)", k, ok)
	}
}

// Len tracks live membership through inserts, removals, and evictions.
func TestFIFO_Len(t *testing.T) {
	t.Parallel()

	p := New[int]()
	for i := 0; i < 3; i++ {
		p.OnSet(i)
	}
	if p.Len() != 3 {
		t.Fatalf("Len = %d, want 3", p.Len())
	}
	p.Remove(1)
	if p.Len() != 2 {
		t.Fatalf("Len after Remove = %d, want 2", p.Len())
	}
	p.Evict()
	if p.Len() != 1 {
		t.Fatalf("Len after Evict = %d, want 1", p.Len())
	}
}

// Ring-buffer growth: a long insertion run still evicts in exact order.
func TestFIFO_GrowthKeepsOrder(t *testing.T) {
	t.Parallel()

	p := New[string]()
	const n = 100
	for i := 0; i < n; i++ {
		p.OnSet(fmt.Sprintf("key%03d", i))
	}
	for i := 0; i < n; i++ {
		want := fmt.Sprintf("key%03d", i)
		if k, ok := p.Evict(); !ok || k != want {
			t.Fatalf("eviction %d = (%q, %v), want %q", i, k, ok, want)
		}
	}
}
