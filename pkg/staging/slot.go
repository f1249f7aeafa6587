package staging

import (
	"strings"
	"sync"
)

// Slot is the pending-query handoff between the UI surface that stages a
// question (e.g. "highlight text -> ask tutor") and the session manager that
// consumes it. Single writer, single consumer, at most one value outstanding.
// Take clears on read so a staged query is never delivered twice.
type Slot struct {
	mu    sync.Mutex
	value string
	set   bool
}

func NewSlot() *Slot {
	return &Slot{}
}

// Stage places a query in the slot, replacing any value not yet consumed.
// Whitespace-only queries are rejected.
func (s *Slot) Stage(query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return false
	}
	s.mu.Lock()
	s.value = query
	s.set = true
	s.mu.Unlock()
	return true
}

// Take returns the staged query and clears the slot as one step.
func (s *Slot) Take() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return "", false
	}
	query := s.value
	s.value = ""
	s.set = false
	return query, true
}
