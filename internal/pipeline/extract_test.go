package pipeline

import "testing"

const sampleArray = `[
  {"type": "mcq", "question_text": "What is the capital of France?",
   "options": ["Paris", "London", "Berlin", "Madrid"],
   "correct_answer": "Paris", "difficulty": "easy", "max_score": 1},
  {"type": "theory", "question_text": "Explain photosynthesis.",
   "answer_text": "Plants convert light into chemical energy.",
   "difficulty": "medium", "max_score": 3}
]`

func TestExtractEquivalentForms(t *testing.T) {
	cases := []struct {
		name string
		raw  interface{}
	}{
		{"plain array", sampleArray},
		{"fenced array", "```json\n" + sampleArray + "\n```"},
		{"array in prose", "Here are the questions you asked for:\n" + sampleArray + "\nLet me know if you need more."},
		{"questions object", `{"questions": ` + sampleArray + `}`},
		{"fenced questions object", "```\n" + `{"questions": ` + sampleArray + `}` + "\n```"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			objs := Extract(tc.raw)
			if len(objs) != 2 {
				t.Fatalf("got %d objects, want 2", len(objs))
			}
			if objs[0]["question_text"] != "What is the capital of France?" {
				t.Fatalf("unexpected first question: %v", objs[0]["question_text"])
			}
			if objs[1]["type"] != "theory" {
				t.Fatalf("unexpected second type: %v", objs[1]["type"])
			}
		})
	}
}

func TestExtractNativeValues(t *testing.T) {
	native := []interface{}{
		map[string]interface{}{"type": "mcq", "question_text": "Q1"},
		"not an object",
		map[string]interface{}{"type": "theory", "question_text": "Q2"},
	}
	objs := Extract(native)
	if len(objs) != 2 {
		t.Fatalf("got %d objects, want 2 (non-objects skipped)", len(objs))
	}

	wrapped := map[string]interface{}{
		"questions": []interface{}{
			map[string]interface{}{"type": "mcq", "question_text": "Q1"},
		},
	}
	if objs := Extract(wrapped); len(objs) != 1 {
		t.Fatalf("got %d objects from questions map, want 1", len(objs))
	}
}

func TestExtractTypedFragments(t *testing.T) {
	raw := `The model rambled here.
{"type": "mcq", "question_text": "Q1", "options": ["a","b","c","d"], "correct_answer": "a"}
and then some more prose
{"type": "theory", "question_text": "Q2", "answer_text": "A2"}
trailing text.`

	objs := Extract(raw)
	if len(objs) != 2 {
		t.Fatalf("got %d fragments, want 2", len(objs))
	}
	if objs[1]["question_text"] != "Q2" {
		t.Fatalf("unexpected second fragment: %v", objs[1])
	}
}

func TestExtractBracketsInsideStrings(t *testing.T) {
	raw := `[{"type": "theory", "question_text": "What does arr[0] mean in {code}?", "answer_text": "The first element."}]`
	objs := Extract(raw)
	if len(objs) != 1 {
		t.Fatalf("got %d objects, want 1", len(objs))
	}
	if objs[0]["question_text"] != "What does arr[0] mean in {code}?" {
		t.Fatalf("brackets inside strings mangled: %v", objs[0]["question_text"])
	}
}

func TestExtractGarbage(t *testing.T) {
	for _, raw := range []interface{}{
		"",
		"no json here at all",
		"{broken json",
		"[1, 2, 3]",
		42,
		nil,
	} {
		if objs := Extract(raw); len(objs) != 0 {
			t.Fatalf("Extract(%v) = %v, want empty", raw, objs)
		}
	}
}
