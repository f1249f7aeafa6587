package utils

import (
	"strings"
	"testing"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("hello", 100, 10)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Fatalf("expected single chunk, got %v", chunks)
	}
}

func TestSplitTextOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10) // 100 chars
	chunks := SplitText(text, 40, 10)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 0; i < len(chunks)-1; i++ {
		if len(chunks[i]) != 40 {
			t.Errorf("chunk %d: expected 40 chars, got %d", i, len(chunks[i]))
		}
		// each chunk starts 30 chars after the previous: last 10 chars repeat
		tail := chunks[i][30:]
		head := chunks[i+1][:10]
		if tail != head {
			t.Errorf("chunk %d overlap mismatch: %q vs %q", i, tail, head)
		}
	}
}

func TestSplitTextOverlapLargerThanChunk(t *testing.T) {
	text := strings.Repeat("x", 50)
	chunks := SplitText(text, 10, 20)
	// step falls back to chunkSize, so chunks should not repeat
	var total int
	for _, c := range chunks {
		total += len(c)
	}
	if total != 50 {
		t.Fatalf("expected full coverage without overlap, got %d chars", total)
	}
}
