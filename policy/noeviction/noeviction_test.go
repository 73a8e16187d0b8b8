package noeviction

import "testing"

// Every operation is a no-op and Evict never proposes a victim.
func TestNoEviction_NeverEvicts(t *testing.T) {
	t.Parallel()

	p := New[string]()
	p.OnSet("a")
	p.OnSet("b")
	p.OnGet("a")
	p.Remove("b")

	if k, ok := p.Evict(); ok {
		t.Fatalf("Evict returned (%q, true), want ok=false", k)
	}
	if p.RecordsReads() {
		t.Fatal("NoEviction must not require read recording")
	}
}
