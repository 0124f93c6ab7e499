package pipeline

import (
	"strings"
	"testing"
)

func TestWordCount(t *testing.T) {
	if got := WordCount("one  two\nthree\tfour"); got != 4 {
		t.Fatalf("WordCount = %d, want 4", got)
	}
	if got := WordCount("   "); got != 0 {
		t.Fatalf("WordCount of blanks = %d, want 0", got)
	}
}

func TestSplitWords(t *testing.T) {
	words := make([]string, 0, 5500)
	for i := 0; i < 5500; i++ {
		words = append(words, "w")
	}
	chunks := SplitWords(strings.Join(words, " "), 2500)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if WordCount(chunks[0]) != 2500 || WordCount(chunks[1]) != 2500 || WordCount(chunks[2]) != 500 {
		t.Fatalf("chunk sizes: %d %d %d", WordCount(chunks[0]), WordCount(chunks[1]), WordCount(chunks[2]))
	}
}

func TestSplitWordsEmpty(t *testing.T) {
	if chunks := SplitWords("", 2500); chunks != nil {
		t.Fatalf("got %v, want nil", chunks)
	}
}
