package pipeline

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("```(?:json)?\\s*")

// Extract recovers a list of loosely-typed question objects from raw
// model output. The model is untrusted and may return a proper JSON
// value, JSON wrapped in markdown fences or prose, or partially
// malformed text; the strategies below escalate in specificity and the
// first that yields anything wins. Extract never fails: unparseable
// input degrades to an empty list.
func Extract(raw interface{}) []map[string]interface{} {
	// Already-parsed values short-circuit the text strategies.
	switch v := raw.(type) {
	case []map[string]interface{}:
		return v
	case []interface{}:
		return toObjects(v)
	case map[string]interface{}:
		if qs, ok := v["questions"]; ok {
			if list, ok := qs.([]interface{}); ok {
				return toObjects(list)
			}
		}
		return []map[string]interface{}{v}
	case nil:
		return nil
	}

	text, ok := raw.(string)
	if !ok {
		return nil
	}
	text = strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))
	if text == "" {
		return nil
	}

	// Full-document parse.
	if objs := parseDocument(text); len(objs) > 0 {
		return objs
	}

	// Longest embedded array containing a question-shaped object.
	if objs := parseEmbeddedArray(text); len(objs) > 0 {
		return objs
	}

	// Object with an embedded "questions" array.
	if objs := parseQuestionsObject(text); len(objs) > 0 {
		return objs
	}

	// Last resort: individual {...} fragments with a type marker.
	return parseTypedFragments(text)
}

func toObjects(list []interface{}) []map[string]interface{} {
	objs := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]interface{}); ok {
			objs = append(objs, obj)
		}
	}
	return objs
}

func questionShaped(obj map[string]interface{}) bool {
	if _, ok := obj["question_text"]; ok {
		return true
	}
	_, ok := obj["type"]
	return ok
}

func parseDocument(text string) []map[string]interface{} {
	var list []interface{}
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		return toObjects(list)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		if qs, ok := obj["questions"].([]interface{}); ok {
			return toObjects(qs)
		}
		return []map[string]interface{}{obj}
	}
	return nil
}

func parseEmbeddedArray(text string) []map[string]interface{} {
	var best []map[string]interface{}
	bestLen := 0
	for _, span := range balancedSpans(text, '[', ']') {
		var list []interface{}
		if err := json.Unmarshal([]byte(span), &list); err != nil {
			continue
		}
		objs := toObjects(list)
		shaped := false
		for _, o := range objs {
			if questionShaped(o) {
				shaped = true
				break
			}
		}
		if shaped && len(span) > bestLen {
			best = objs
			bestLen = len(span)
		}
	}
	return best
}

func parseQuestionsObject(text string) []map[string]interface{} {
	for _, span := range balancedSpans(text, '{', '}') {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(span), &obj); err != nil {
			continue
		}
		if qs, ok := obj["questions"].([]interface{}); ok {
			if objs := toObjects(qs); len(objs) > 0 {
				return objs
			}
		}
	}
	return nil
}

func parseTypedFragments(text string) []map[string]interface{} {
	var out []map[string]interface{}
	var walk func(s string)
	walk = func(s string) {
		for _, span := range balancedSpans(s, '{', '}') {
			var obj map[string]interface{}
			if err := json.Unmarshal([]byte(span), &obj); err == nil {
				if t, _ := obj["type"].(string); t == string(KindMCQ) || t == string(KindTheory) {
					out = append(out, obj)
					continue
				}
			}
			// A fragment that is not itself a question may still wrap
			// one; descend past the outer braces.
			if len(span) > 2 {
				walk(span[1 : len(span)-1])
			}
		}
	}
	walk(text)
	return out
}

// balancedSpans returns the outermost balanced open..close spans in s,
// tracking JSON string literals so brackets inside quotes don't count.
// Unterminated spans are dropped.
func balancedSpans(s string, open, close byte) []string {
	var spans []string
	for i := 0; i < len(s); i++ {
		if s[i] != open {
			continue
		}
		end := matchBalanced(s, i, open, close)
		if end < 0 {
			// No matching close anywhere after this point.
			break
		}
		spans = append(spans, s[i:end+1])
		i = end
	}
	return spans
}

func matchBalanced(s string, start int, open, close byte) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
