package pipeline

import (
	"fmt"
	"strings"
)

// systemPrompt pins the exact JSON shape the model must emit. The
// output is still parsed defensively; this only raises the hit rate.
const systemPrompt = `You are an expert teacher creating assessment questions with detailed solutions.

Generate a JSON array with this EXACT structure:

[
  {
    "type": "mcq",
    "question_text": "Your question here?",
    "options": ["Option 1", "Option 2", "Option 3", "Option 4"],
    "correct_answer": "Option 1",
    "difficulty": "easy",
    "max_score": 1,
    "workings": "Step 1: Explanation\nStep 2: Calculation\nStep 3: Final answer"
  },
  {
    "type": "theory",
    "question_text": "Your question here?",
    "answer_text": "Your answer here.",
    "difficulty": "medium",
    "max_score": 3,
    "workings": "Step-by-step solution if applicable, null otherwise"
  }
]

RULES FOR WORKINGS:
1. Include "workings" for ALL calculation-based questions
2. Format: clear numbered steps showing intermediate calculations and formulas
3. For conceptual/definition questions, set workings to null
4. Use \n for line breaks inside workings

OTHER RULES:
1. Field names: "question_text" (NOT "question"), "answer_text" (NOT "answer")
2. For MCQ: "correct_answer" must EXACTLY match one of the options
3. Always include "type", "difficulty", "max_score", "workings"
4. Mix 60% MCQ / 40% Theory
5. Mix difficulties: 30% easy, 40% medium, 30% hard

Output ONLY the JSON array. No markdown, no explanations.`

// focusPass is one generation pass with its own framing and share of
// the total quota.
type focusPass struct {
	Name    string
	Share   float64
	Framing string
}

// Focus passes over the same text raise topical coverage beyond a
// single call: recall items dominate, application and conceptual
// items round the set out.
var focusPasses = []focusPass{
	{
		Name:    "recall",
		Share:   0.5,
		Framing: "Focus on direct recall of facts, definitions and results stated in the lesson (with workings if calculations are involved).",
	},
	{
		Name:    "application",
		Share:   0.25,
		Framing: "Focus on application questions that place the lesson's methods in NEW scenarios not mentioned in the text (with full workings).",
	},
	{
		Name:    "conceptual",
		Share:   0.25,
		Framing: "Focus on conceptual questions that test understanding of why the lesson's ideas work (workings = null).",
	},
}

func userPrompt(lessonText string, count int, framing string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %d assessment questions from this lesson:\n\n%s\n\n", count, lessonText)
	if framing != "" {
		sb.WriteString(framing)
		sb.WriteString("\n\n")
	}
	fmt.Fprintf(&sb, "Create ALL %d questions now with workings for calculation questions.\nOutput the JSON array with %d questions:", count, count)
	return sb.String()
}

// focusQuotas splits total across the focus passes so the parts sum
// exactly to total, remainder going to the first (recall) pass.
func focusQuotas(total int) []int {
	quotas := make([]int, len(focusPasses))
	sum := 0
	for i, fp := range focusPasses {
		quotas[i] = int(float64(total) * fp.Share)
		sum += quotas[i]
	}
	quotas[0] += total - sum
	return quotas
}
