package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
)

// stubOracle answers every pass with the same canned output unless a
// framing substring is registered to fail.
type stubOracle struct {
	mu      sync.Mutex
	output  string
	failOn  string
	calls   int
	prompts []string
}

func (s *stubOracle) Complete(_ context.Context, _ string, userPrompt string, _ int, _ bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prompts = append(s.prompts, userPrompt)
	if s.failOn != "" && strings.Contains(userPrompt, s.failOn) {
		return "", errors.New("upstream error")
	}
	return s.output, nil
}

func TestGenerateHappyPath(t *testing.T) {
	oracle := &stubOracle{output: sampleArray}
	g := NewGenerator(oracle, nil, Options{TotalQuestions: 5, FocusPasses: false}, zap.NewNop())

	var checkpoints []int
	out := g.Generate(context.Background(), "A short lesson about France and plants.", func(p int) {
		checkpoints = append(checkpoints, p)
	})

	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2", len(out))
	}
	if oracle.calls != 1 {
		t.Fatalf("oracle called %d times, want 1 single pass", oracle.calls)
	}
	if len(checkpoints) == 0 || checkpoints[0] != 10 {
		t.Fatalf("first checkpoint = %v, want 10", checkpoints)
	}
	last := checkpoints[len(checkpoints)-1]
	if last != 85 {
		t.Fatalf("last checkpoint = %d, want 85", last)
	}
	for i := 1; i < len(checkpoints); i++ {
		if checkpoints[i] < checkpoints[i-1] {
			t.Fatalf("checkpoints regressed: %v", checkpoints)
		}
	}
}

func TestGenerateFocusPasses(t *testing.T) {
	oracle := &stubOracle{output: sampleArray}
	g := NewGenerator(oracle, nil, Options{TotalQuestions: 30, FocusPasses: true}, zap.NewNop())

	g.Generate(context.Background(), "A short lesson.", nil)

	if oracle.calls != 3 {
		t.Fatalf("oracle called %d times, want 3 focus passes", oracle.calls)
	}
	// Quotas split 30 as 16/7/7, remainder going to recall.
	var recall, sevens int
	var application bool
	for _, p := range oracle.prompts {
		if strings.Contains(p, "Generate 16 ") {
			recall++
		}
		if strings.Contains(p, "Generate 7 ") {
			sevens++
		}
		if strings.Contains(p, "NEW scenarios") {
			application = true
		}
	}
	if recall != 1 || sevens != 2 || !application {
		t.Fatalf("unexpected focus quotas: recall=%d sevens=%d application=%v", recall, sevens, application)
	}
}

func TestGenerateChunksLongLesson(t *testing.T) {
	oracle := &stubOracle{output: sampleArray}
	g := NewGenerator(oracle, nil, Options{TotalQuestions: 30, FocusPasses: true}, zap.NewNop())

	long := strings.Repeat("word ", 5500)
	g.Generate(context.Background(), long, nil)

	// 5500 words is past the threshold: three 2500-word chunks, no
	// focus passes.
	if oracle.calls != 3 {
		t.Fatalf("oracle called %d times, want 3 chunk passes", oracle.calls)
	}
	for _, p := range oracle.prompts {
		if !strings.Contains(p, "Generate 15 ") {
			t.Fatalf("chunk quota not capped at 15: %q", p[:60])
		}
	}
}

func TestGenerateFallbackOnGarbage(t *testing.T) {
	oracle := &stubOracle{output: "complete nonsense, no json anywhere"}
	g := NewGenerator(oracle, nil, Options{TotalQuestions: 30}, zap.NewNop())

	lesson := "Thermodynamics lesson content for the fallback answer."
	out := g.Generate(context.Background(), lesson, nil)

	if len(out) != 1 {
		t.Fatalf("got %d candidates, want exactly the fallback", len(out))
	}
	fb := out[0]
	if fb.Kind != KindTheory || fb.Difficulty != DifficultyMedium || fb.MaxScore != 3 {
		t.Fatalf("unexpected fallback shape: %+v", fb)
	}
	if fb.Text != "Summarize the main concepts covered in this lesson." {
		t.Fatalf("unexpected fallback text: %q", fb.Text)
	}
	if fb.Answer == "" || !strings.Contains(fb.Answer, "Thermodynamics") {
		t.Fatalf("fallback answer should carry the lesson text: %q", fb.Answer)
	}
}

func TestGenerateFallbackTruncatesAnswer(t *testing.T) {
	oracle := &stubOracle{output: "nonsense"}
	g := NewGenerator(oracle, nil, Options{TotalQuestions: 30}, zap.NewNop())

	out := g.Generate(context.Background(), strings.Repeat("x ", 500), nil)
	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1", len(out))
	}
	if got := len([]rune(out[0].Answer)); got != 203 {
		t.Fatalf("fallback answer length = %d, want 200 + ellipsis", got)
	}
}

func TestGenerateSurvivesFailedPass(t *testing.T) {
	oracle := &stubOracle{output: sampleArray, failOn: "NEW scenarios"}
	g := NewGenerator(oracle, nil, Options{TotalQuestions: 30, FocusPasses: true}, zap.NewNop())

	out := g.Generate(context.Background(), "A short lesson.", nil)

	// Two of three passes succeed; their candidates survive the failed
	// application pass.
	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2 from the surviving passes", len(out))
	}
}

func TestGenerateCrossPassDedup(t *testing.T) {
	// Every focus pass returns the identical question set.
	oracle := &stubOracle{output: sampleArray}
	g := NewGenerator(oracle, nil, Options{TotalQuestions: 30, FocusPasses: true}, zap.NewNop())

	out := g.Generate(context.Background(), "A short lesson.", nil)
	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2 after cross-pass dedup", len(out))
	}
}

func TestGenerateEmptyLessonText(t *testing.T) {
	oracle := &stubOracle{output: "nonsense"}
	g := NewGenerator(oracle, nil, Options{TotalQuestions: 30}, zap.NewNop())

	out := g.Generate(context.Background(), "   ", nil)
	if len(out) != 1 {
		t.Fatalf("got %d candidates, want the fallback", len(out))
	}
	if out[0].Answer != "No text available for this lesson." {
		t.Fatalf("unexpected placeholder answer: %q", out[0].Answer)
	}
}
