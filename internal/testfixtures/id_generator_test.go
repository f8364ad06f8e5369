package testfixtures

import (
	"sync"
	"testing"
)

func TestIDGeneratorSequence(t *testing.T) {
	gen := NewIDGenerator("res")

	if first, second := gen.Next(), gen.Next(); first != "res-1" || second != "res-2" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}
	if gen.Issued() != 2 {
		t.Fatalf("expected 2 issued, got %d", gen.Issued())
	}
	if got := NewIDGenerator("").Next(); got != "id-1" {
		t.Fatalf("expected default prefix, got %q", got)
	}
}

func TestIDGeneratorConcurrentUse(t *testing.T) {
	gen := NewIDGenerator("res")
	next := gen.NextFunc()

	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := next()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != 32 || gen.Issued() != 32 {
		t.Fatalf("expected 32 distinct identifiers, got %d (issued %d)", len(seen), gen.Issued())
	}
}
