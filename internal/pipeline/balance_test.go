package pipeline

import (
	"fmt"
	"testing"
)

func makeCandidates(easy, medium, hard int) []Candidate {
	var out []Candidate
	add := func(difficulty string, n int) {
		for i := 0; i < n; i++ {
			out = append(out, Candidate{
				Kind:       KindTheory,
				Text:       fmt.Sprintf("%s question %d", difficulty, i),
				Answer:     "answer",
				Difficulty: difficulty,
				MaxScore:   3,
			})
		}
	}
	add(DifficultyEasy, easy)
	add(DifficultyMedium, medium)
	add(DifficultyHard, hard)
	return out
}

func countByDifficulty(candidates []Candidate) map[string]int {
	counts := map[string]int{}
	for _, c := range candidates {
		counts[c.Difficulty]++
	}
	return counts
}

func TestBalanceTargetRatio(t *testing.T) {
	out := Balance(makeCandidates(20, 20, 20), 30)
	if len(out) != 30 {
		t.Fatalf("selected %d, want 30", len(out))
	}
	counts := countByDifficulty(out)
	if counts[DifficultyEasy] != 9 || counts[DifficultyMedium] != 12 || counts[DifficultyHard] != 9 {
		t.Fatalf("got %v, want easy=9 medium=12 hard=9", counts)
	}
}

func TestBalanceSmallN(t *testing.T) {
	out := Balance(makeCandidates(10, 10, 10), 10)
	counts := countByDifficulty(out)
	if counts[DifficultyEasy] != 3 || counts[DifficultyMedium] != 4 || counts[DifficultyHard] != 3 {
		t.Fatalf("got %v, want easy=3 medium=4 hard=3", counts)
	}
}

func TestBalanceBackfill(t *testing.T) {
	// No hard questions at all: the hard quota backfills from the rest.
	out := Balance(makeCandidates(15, 15, 0), 30)
	if len(out) != 30 {
		t.Fatalf("selected %d, want 30 via backfill", len(out))
	}
	counts := countByDifficulty(out)
	if counts[DifficultyHard] != 0 {
		t.Fatalf("invented hard questions: %v", counts)
	}
}

func TestBalanceFewerThanN(t *testing.T) {
	out := Balance(makeCandidates(2, 2, 1), 30)
	if len(out) != 5 {
		t.Fatalf("selected %d, want all 5", len(out))
	}
}

func TestBalanceDeterministicOrder(t *testing.T) {
	in := makeCandidates(5, 5, 5)
	a := Balance(in, 9)
	b := Balance(in, 9)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Text != b[i].Text {
			t.Fatalf("selection order not deterministic at %d: %q vs %q", i, a[i].Text, b[i].Text)
		}
	}
}

func TestBalanceEmpty(t *testing.T) {
	if out := Balance(nil, 30); out != nil {
		t.Fatalf("Balance(nil) = %v, want nil", out)
	}
	if out := Balance(makeCandidates(1, 1, 1), 0); out != nil {
		t.Fatalf("Balance(n=0) = %v, want nil", out)
	}
}

func TestDifficultyQuotasSum(t *testing.T) {
	for n := 1; n <= 60; n++ {
		q := difficultyQuotas(n)
		sum := q[DifficultyEasy] + q[DifficultyMedium] + q[DifficultyHard]
		if sum != n {
			t.Fatalf("quotas for n=%d sum to %d: %v", n, sum, q)
		}
	}
}
