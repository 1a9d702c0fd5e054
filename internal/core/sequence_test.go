package core

import (
	"sync"
	"testing"

	"chvcore/pkg/domain"
)

func TestSequenceStartsAtOneAndIsIndependentPerScope(t *testing.T) {
	a := NewSequenceAllocator()
	hh := NewScope(domain.EntityHousehold, []string{"KE-13", "KE-13-09"})
	mo := NewScope(domain.EntityMother, []string{"KE-13", "KE-13-09"})
	other := NewScope(domain.EntityHousehold, []string{"KE-47"})

	if got := a.Next(hh); got != 1 {
		t.Fatalf("first household value = %d, want 1", got)
	}
	if got := a.Next(hh); got != 2 {
		t.Fatalf("second household value = %d, want 2", got)
	}
	if got := a.Next(mo); got != 1 {
		t.Fatalf("mother scope should start at 1, got %d", got)
	}
	if got := a.Next(other); got != 1 {
		t.Fatalf("other path should start at 1, got %d", got)
	}
	if a.Last(hh) != 2 || a.Last(mo) != 1 {
		t.Fatalf("unexpected last values: %v", a.Counters())
	}
	if hh.Key() != "household_KE-13-KE-13-09" {
		t.Fatalf("unexpected scope key %q", hh.Key())
	}
}

func TestSequenceConcurrentAllocationsAreUnique(t *testing.T) {
	a := NewSequenceAllocator()
	scope := NewScope(domain.EntityChild, []string{"KE-13"})
	const workers, each = 8, 50

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int]struct{})
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < each; j++ {
				n := a.Next(scope)
				mu.Lock()
				seen[n] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(seen) != workers*each {
		t.Fatalf("expected %d unique values, got %d", workers*each, len(seen))
	}
	if a.Last(scope) != workers*each {
		t.Fatalf("last = %d, want %d", a.Last(scope), workers*each)
	}
}

func TestFormatDisplayID(t *testing.T) {
	units := []string{"KE-13", "KE-13-09"}
	cases := []struct {
		kind domain.EntityType
		n    int
		want string
	}{
		{domain.EntityHousehold, 1, "KE-13-KE-13-09-0001"},
		{domain.EntityMother, 1, "KE-13-KE-13-09-M-0001"},
		{domain.EntityChild, 12, "KE-13-KE-13-09-C-0012"},
		{domain.EntityDiseaseCase, 10000, "KE-13-KE-13-09-D-10000"},
	}
	for _, tc := range cases {
		if got := FormatDisplayID(tc.kind, units, tc.n); got != tc.want {
			t.Errorf("FormatDisplayID(%s, %d) = %q, want %q", tc.kind, tc.n, got, tc.want)
		}
	}
}

func TestRestoreNeverMovesBackwards(t *testing.T) {
	a := NewSequenceAllocator()
	scope := NewScope(domain.EntityHousehold, []string{"KE-13"})
	a.Next(scope)
	a.Next(scope)
	a.Next(scope)

	a.Restore(map[string]int{scope.Key(): 1})
	if a.Last(scope) != 3 {
		t.Fatalf("restore moved counter backwards to %d", a.Last(scope))
	}
	a.Restore(map[string]int{scope.Key(): 7})
	if got := a.Next(scope); got != 8 {
		t.Fatalf("next after restore = %d, want 8", got)
	}
}

func TestObserveRebuildsFromDisplayIDs(t *testing.T) {
	a := NewSequenceAllocator()
	a.Observe(domain.EntityMother, "KE-13-KE-13-09-M-0004")
	a.Observe(domain.EntityMother, "KE-13-KE-13-09-M-0002")
	a.Observe(domain.EntityHousehold, "KE-13-KE-13-09-0009")
	a.Observe(domain.EntityChild, "not-a-display-id")
	a.Observe(domain.EntityChild, "KE-13-M-0003") // wrong tag for kind

	mo := NewScope(domain.EntityMother, []string{"KE-13", "KE-13-09"})
	hh := NewScope(domain.EntityHousehold, []string{"KE-13", "KE-13-09"})
	if a.Last(mo) != 4 {
		t.Fatalf("mother counter = %d, want 4", a.Last(mo))
	}
	if a.Last(hh) != 9 {
		t.Fatalf("household counter = %d, want 9", a.Last(hh))
	}
	if len(a.Counters()) != 2 {
		t.Fatalf("unexpected counters: %v", a.Counters())
	}
}
