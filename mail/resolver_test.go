package mail

import (
	"testing"
)

func TestSortCandidates(t *testing.T) {
	candidates := []Candidate{
		{Host: "mx3.example.com", Priority: 30},
		{Host: "mx1.example.com", Priority: 5},
		{Host: "mx2a.example.com", Priority: 10},
		{Host: "mx2b.example.com", Priority: 10},
	}
	sortCandidates(candidates)

	wantOrder := []string{"mx1.example.com", "mx2a.example.com", "mx2b.example.com", "mx3.example.com"}
	for i, want := range wantOrder {
		if candidates[i].Host != want {
			t.Errorf("candidate[%d] = %s, want %s", i, candidates[i].Host, want)
		}
	}

	for i := 1; i < len(candidates); i++ {
		if candidates[i-1].Priority > candidates[i].Priority {
			t.Errorf("candidates not ascending at %d: %d > %d", i, candidates[i-1].Priority, candidates[i].Priority)
		}
	}
}

func TestFallbackCandidates(t *testing.T) {
	candidates := fallbackCandidates("example.org")
	if len(candidates) != 1 {
		t.Fatalf("expected exactly one synthetic candidate, got %d", len(candidates))
	}
	if candidates[0].Host != "example.org" {
		t.Errorf("synthetic candidate host = %s, want example.org", candidates[0].Host)
	}
	if candidates[0].Priority != 0 {
		t.Errorf("synthetic candidate priority = %d, want 0", candidates[0].Priority)
	}
}

func TestResolverEmptyOnFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping DNS lookup in short mode")
	}

	r := NewResolver()
	// Reserved under RFC 2606, guaranteed not to resolve
	candidates := r.Resolve("nxdomain.invalid")
	if len(candidates) != 0 {
		t.Errorf("expected empty candidate list for unresolvable domain, got %v", candidates)
	}
}
