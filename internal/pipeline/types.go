package pipeline

// Kind tags the two question variants the model is asked to produce.
type Kind string

const (
	KindMCQ    Kind = "mcq"
	KindTheory Kind = "theory"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

const optionCount = 4

// Candidate is one validated, in-memory question produced by a
// generation pass. MCQ candidates always have exactly four options and
// a resolved CorrectIndex; theory candidates keep the reference answer
// in Answer and leave CorrectIndex at -1.
type Candidate struct {
	Kind       Kind
	Text       string
	Answer     string
	Difficulty string
	MaxScore   int

	Options      []string
	CorrectIndex int

	// Workings is the step-by-step solution, empty for conceptual items.
	Workings string

	// AnswerHealed marks items whose correct answer could not be matched
	// to an option and fell back to the first one.
	AnswerHealed bool
}

// CorrectOption returns the letter A-D for MCQ candidates, "" otherwise.
func (c Candidate) CorrectOption() string {
	if c.Kind != KindMCQ || c.CorrectIndex < 0 || c.CorrectIndex >= optionCount {
		return ""
	}
	return string(rune('A' + c.CorrectIndex))
}

// Options defaults. Thresholds follow the tuned production values;
// they are knobs, not derived quantities.
const (
	DefaultTotalQuestions     = 30
	DefaultChunkSize          = 2500
	DefaultChunkThreshold     = 3000
	DefaultMaxPerChunk        = 15
	DefaultRelevanceThreshold = 0.40
	DefaultDuplicateThreshold = 0.85
	DefaultConcurrency        = 3
)

// Difficulty ratio targets for the final selection.
const (
	easyRatio   = 0.3
	mediumRatio = 0.4
	hardRatio   = 0.3
)

// Options carries the tunable parameters of one generation run.
type Options struct {
	TotalQuestions     int
	ChunkSize          int
	ChunkThreshold     int
	MaxPerChunk        int
	RelevanceThreshold float64
	DuplicateThreshold float64
	Concurrency        int
	// FocusPasses splits single-chunk generation into recall,
	// application and conceptual passes for broader coverage.
	FocusPasses bool
}

// withDefaults fills zero values so a partially populated config
// struct still yields a runnable pipeline.
func (o Options) withDefaults() Options {
	if o.TotalQuestions <= 0 {
		o.TotalQuestions = DefaultTotalQuestions
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ChunkThreshold <= 0 {
		o.ChunkThreshold = DefaultChunkThreshold
	}
	if o.MaxPerChunk <= 0 {
		o.MaxPerChunk = DefaultMaxPerChunk
	}
	if o.RelevanceThreshold <= 0 {
		o.RelevanceThreshold = DefaultRelevanceThreshold
	}
	if o.DuplicateThreshold <= 0 {
		o.DuplicateThreshold = DefaultDuplicateThreshold
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}
