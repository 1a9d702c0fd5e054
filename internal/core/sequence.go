package core

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"chvcore/pkg/domain"
)

// Scope keys a display-id sequence by entity kind and administrative path.
type Scope struct {
	Kind domain.EntityType
	Path string
}

// NewScope joins the administrative units coarsest-to-finest into a scope path.
func NewScope(kind domain.EntityType, units []string) Scope {
	return Scope{Kind: kind, Path: strings.Join(units, "-")}
}

// Key renders the scope as stored in the counter map, e.g. "mother_KE-13-KE-13-09".
func (s Scope) Key() string {
	return string(s.Kind) + "_" + s.Path
}

// DisplayID formats the n-th identifier of the scope.
func (s Scope) DisplayID(n int) string {
	if tag := kindTag(s.Kind); tag != "" {
		return fmt.Sprintf("%s-%s-%04d", s.Path, tag, n)
	}
	return fmt.Sprintf("%s-%04d", s.Path, n)
}

func kindTag(kind domain.EntityType) string {
	switch kind {
	case domain.EntityMother:
		return "M"
	case domain.EntityChild:
		return "C"
	case domain.EntityDiseaseCase:
		return "D"
	default:
		return ""
	}
}

// SequenceAllocator issues strictly increasing integers per scope, starting at 1.
// It is safe for concurrent use.
type SequenceAllocator struct {
	mu   sync.Mutex
	last map[string]int
}

// NewSequenceAllocator returns an allocator with no issued values.
func NewSequenceAllocator() *SequenceAllocator {
	return &SequenceAllocator{last: make(map[string]int)}
}

// Next returns the next value for scope.
func (a *SequenceAllocator) Next(scope Scope) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := scope.Key()
	a.last[key]++
	return a.last[key]
}

// Last returns the most recently issued value for scope, 0 if none.
func (a *SequenceAllocator) Last(scope Scope) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last[scope.Key()]
}

// Counters returns a copy of the scope to last-issued mapping.
func (a *SequenceAllocator) Counters() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]int, len(a.last))
	for k, v := range a.last {
		out[k] = v
	}
	return out
}

// Restore replaces the counters. Values never move backwards: a restored
// counter lower than one already issued is ignored.
func (a *SequenceAllocator) Restore(counters map[string]int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for k, v := range counters {
		if v > a.last[k] {
			a.last[k] = v
		}
	}
}

// Observe raises the scope counter to at least the value encoded in displayID.
// It is used to rebuild counters from records when a snapshot carries none.
func (a *SequenceAllocator) Observe(kind domain.EntityType, displayID string) {
	scope, n, ok := parseDisplayID(kind, displayID)
	if !ok {
		return
	}
	a.Restore(map[string]int{scope.Key(): n})
}

func parseDisplayID(kind domain.EntityType, displayID string) (Scope, int, bool) {
	idx := strings.LastIndex(displayID, "-")
	if idx < 0 {
		return Scope{}, 0, false
	}
	n, err := strconv.Atoi(displayID[idx+1:])
	if err != nil || n <= 0 {
		return Scope{}, 0, false
	}
	path := displayID[:idx]
	if tag := kindTag(kind); tag != "" {
		suffix := "-" + tag
		if !strings.HasSuffix(path, suffix) {
			return Scope{}, 0, false
		}
		path = strings.TrimSuffix(path, suffix)
	}
	return Scope{Kind: kind, Path: path}, n, true
}

// FormatDisplayID renders the n-th display id for kind under the given
// administrative units, e.g. "KE-13-KE-13-09-M-0001".
func FormatDisplayID(kind domain.EntityType, units []string, n int) string {
	return NewScope(kind, units).DisplayID(n)
}
