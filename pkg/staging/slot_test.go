package staging

import (
	"sync"
	"testing"
)

func TestSlotStageAndTake(t *testing.T) {
	s := NewSlot()

	if _, ok := s.Take(); ok {
		t.Error("Take on empty slot should miss")
	}

	if !s.Stage("what is inertia?") {
		t.Error("Stage should accept a non-empty query")
	}
	got, ok := s.Take()
	if !ok || got != "what is inertia?" {
		t.Errorf("Take = %q, %v", got, ok)
	}

	// Clear-on-read: second take misses.
	if _, ok := s.Take(); ok {
		t.Error("Take should clear the slot")
	}
}

func TestSlotRejectsBlankQueries(t *testing.T) {
	s := NewSlot()
	if s.Stage("   ") {
		t.Error("Stage should reject whitespace-only queries")
	}
	if _, ok := s.Take(); ok {
		t.Error("slot should stay empty after rejected stage")
	}
}

func TestSlotReplacesUnconsumedValue(t *testing.T) {
	s := NewSlot()
	s.Stage("first")
	s.Stage("second")

	got, ok := s.Take()
	if !ok || got != "second" {
		t.Errorf("Take = %q, %v; want latest staged value", got, ok)
	}
	if _, ok := s.Take(); ok {
		t.Error("only one value may be outstanding")
	}
}

func TestSlotSingleDeliveryUnderConcurrentTakes(t *testing.T) {
	s := NewSlot()
	s.Stage("only once")

	var wg sync.WaitGroup
	delivered := make(chan string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if q, ok := s.Take(); ok {
				delivered <- q
			}
		}()
	}
	wg.Wait()
	close(delivered)

	count := 0
	for range delivered {
		count++
	}
	if count != 1 {
		t.Errorf("query delivered %d times, want exactly 1", count)
	}
}
