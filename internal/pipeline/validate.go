package pipeline

import (
	"strings"
	"unicode"

	"go.uber.org/zap"
)

const maxTextLen = 250

// ValidateBatch normalizes each raw object into a Candidate, silently
// dropping items that fail the structural checks and deduplicating by
// normalized question text (case-insensitive) within the batch. A bad
// item never aborts the rest of the batch.
func ValidateBatch(objs []map[string]interface{}, log *zap.Logger) []Candidate {
	seen := make(map[string]struct{}, len(objs))
	out := make([]Candidate, 0, len(objs))
	for _, obj := range objs {
		c, ok := validateOne(obj, log)
		if !ok {
			continue
		}
		key := strings.ToLower(c.Text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func validateOne(obj map[string]interface{}, log *zap.Logger) (Candidate, bool) {
	kind, ok := obj["type"].(string)
	if !ok || (kind != string(KindMCQ) && kind != string(KindTheory)) {
		return Candidate{}, false
	}

	text := strings.TrimSpace(stringField(obj, "question_text"))
	if text == "" {
		return Candidate{}, false
	}

	c := Candidate{
		Kind:         Kind(kind),
		Text:         truncate(text),
		Difficulty:   normalizeDifficulty(stringField(obj, "difficulty")),
		Workings:     strings.TrimSpace(stringField(obj, "workings")),
		CorrectIndex: -1,
	}

	c.MaxScore = intField(obj, "max_score")
	if c.MaxScore <= 0 {
		if c.Kind == KindMCQ {
			c.MaxScore = 1
		} else {
			c.MaxScore = 3
		}
	}

	switch c.Kind {
	case KindMCQ:
		options := stringSlice(obj["options"])
		if len(options) != optionCount || !distinctOptions(options) {
			return Candidate{}, false
		}
		c.Options = options

		idx, healed := resolveCorrectAnswer(stringField(obj, "correct_answer"), options)
		if healed {
			log.Warn("correct answer healed to first option",
				zap.String("question", c.Text),
				zap.String("answer", stringField(obj, "correct_answer")))
		}
		c.CorrectIndex = idx
		c.AnswerHealed = healed
		c.Answer = truncate(options[idx])
	case KindTheory:
		answer := strings.TrimSpace(stringField(obj, "answer_text"))
		if answer == "" {
			return Candidate{}, false
		}
		c.Answer = truncate(answer)
	}

	return c, true
}

// resolveCorrectAnswer maps the model's claimed answer onto an option
// index. The model frequently echoes a paraphrase of the chosen option
// rather than its literal text, so the match rules escalate from exact
// to fuzzy; when nothing matches, the first option is assigned and the
// item flagged. Yield over strictness is a deliberate policy here.
func resolveCorrectAnswer(answer string, options []string) (index int, healed bool) {
	// Exact match.
	for i, opt := range options {
		if answer == opt {
			return i, false
		}
	}

	// Case-insensitive, whitespace-trimmed.
	folded := strings.ToLower(strings.TrimSpace(answer))
	for i, opt := range options {
		if strings.ToLower(strings.TrimSpace(opt)) == folded {
			return i, false
		}
	}

	// Substring in either direction.
	if folded != "" {
		for i, opt := range options {
			optFolded := strings.ToLower(strings.TrimSpace(opt))
			if strings.Contains(optFolded, folded) || strings.Contains(folded, optFolded) {
				return i, false
			}
		}
	}

	// Punctuation-stripped comparison.
	bare := stripPunct(folded)
	if bare != "" {
		for i, opt := range options {
			if stripPunct(strings.ToLower(strings.TrimSpace(opt))) == bare {
				return i, false
			}
		}
	}

	return 0, true
}

func distinctOptions(options []string) bool {
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		key := strings.ToLower(strings.TrimSpace(opt))
		if key == "" {
			return false
		}
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxTextLen {
		return s
	}
	return string(runes[:maxTextLen-3]) + "..."
}

func normalizeDifficulty(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

func stripPunct(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func stringField(obj map[string]interface{}, key string) string {
	v, _ := obj[key].(string)
	return v
}

func intField(obj map[string]interface{}, key string) int {
	switch v := obj[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func stringSlice(v interface{}) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		return nil
	}
}
