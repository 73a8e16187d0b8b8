package lru

import "testing"

// With no reads, eviction order equals insertion order.
func TestLRU_InsertionOrderWithoutReads(t *testing.T) {
	t.Parallel()

	p := New[string]()
	p.OnSet("a")
	p.OnSet("b")
	p.OnSet("c")

	for _, want := range []string{"a", "b", "c"} {
		k, ok := p.Evict()
		if !ok || k != want {
			t.Fatalf("Evict = (%q, %v), want %q", k, ok, want)
		}
	}
	if _, ok := p.Evict(); ok {
		t.Fatal("Evict on empty policy must report ok=false")
	}
}

// A read promotes the key: the untouched one becomes the victim.
func TestLRU_GetPromotes(t *testing.T) {
	t.Parallel()

	p := New[string]()
	p.OnSet("a")
	p.OnSet("b")
	p.OnGet("a") // a is now more recent than b

	if k, ok := p.Evict(); !ok || k != "b" {
		t.Fatalf("Evict = (%q, %v), want b", k, ok)
	}
	if k, ok := p.Evict(); !ok || k != "a" {
		t.Fatalf("Evict = (%q, %v), want a", k, ok)
	}
}

// Re-setting an existing key re-links it at MRU.
func TestLRU_SetPromotes(t *testing.T) {
	t.Parallel()

	p := New[string]()
	p.OnSet("a")
	p.OnSet("b")
	p.OnSet("a") // overwrite counts as recent use

	if k, ok := p.Evict(); !ok || k != "b" {
		t.Fatalf("Evict = (%q, %v), want b", k, ok)
	}
}

// Remove unlinks anywhere in the list; unknown keys are a no-op.
func TestLRU_Remove(t *testing.T) {
	t.Parallel()

	p := New[string]()
	p.OnSet("a")
	p.OnSet("b")
	p.OnSet("c")
	p.Remove("b")
	p.Remove("ghost")

	if p.Len() != 2 {
		t.Fatalf("Len = %d, want 2", p.Len())
	}
	if k, ok := p.Evict(); !ok || k != "a" {
		t.Fatalf("Evict = (%q, %v), want a", k, ok)
	}
	if k, ok := p.Evict(); !ok || k != "c" {
		t.Fatalf("Evict = (%q, %v), want c", k, ok)
	}
}

// Removing the head and the tail keeps the list consistent.
func TestLRU_RemoveEnds(t *testing.T) {
	t.Parallel()

	p := New[int]()
	p.OnSet(1)
	p.OnSet(2)
	p.OnSet(3) // list: 3(head) 2 1(tail)
	p.Remove(3)
	p.Remove(1)

	if k, ok := p.Evict(); !ok || k != 2 {
		t.Fatalf("Evict = (%d, %v), want 2", k, ok)
	}
	if _, ok := p.Evict(); ok {
		t.Fatal("policy must be empty")
	}

	// A fresh insert after full drain must work.
	p.OnSet(7)
	if k, ok := p.Evict(); !ok || k != 7 {
		t.Fatalf("Evict = (%d, %v), want 7", k, ok)
	}
}

// OnGet of an unknown key must not corrupt state.
func TestLRU_GetUnknownNoop(t *testing.T) {
	t.Parallel()

	p := New[string]()
	p.OnGet("ghost")
	p.OnSet("a")

	if k, ok := p.Evict(); !ok || k != "a" {
		t.Fatalf("Evict = (%q, %v), want a", k, ok)
	}
}
