package pipeline

import (
	"context"
	"edu_ai_backend/pkg/monitoring"
	"edu_ai_backend/pkg/tracing"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Oracle is the contract the generator needs from the generative
// model client. Complete may fail on transport errors; the generator
// treats a failed pass as producing zero candidates.
type Oracle interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, jsonMode bool) (string, error)
}

// ProgressFunc receives generation progress percentages at the
// defined checkpoints. Implementations must be cheap; they are called
// from the generation hot path.
type ProgressFunc func(progress int)

// Generator turns lesson text into a curated candidate set: chunking
// decision, one or more oracle passes, extraction, validation,
// semantic filtering and difficulty balancing. It never fails: a run
// whose every pass collapses still yields the deterministic fallback
// question, so the only fatal error left to the caller is persistence.
type Generator struct {
	oracle Oracle
	filter *Filter
	opts   Options
	log    *zap.Logger
}

func NewGenerator(oracle Oracle, filter *Filter, opts Options, log *zap.Logger) *Generator {
	return &Generator{
		oracle: oracle,
		filter: filter,
		opts:   opts.withDefaults(),
		log:    log,
	}
}

// SetOptions swaps the tunables; used by the config hot-reload path.
func (g *Generator) SetOptions(opts Options) {
	g.opts = opts.withDefaults()
}

// passUnit is one independent oracle call: a chunk of the lesson or a
// focus pass over the whole text, with its own quota.
type passUnit struct {
	name   string
	text   string
	quota  int
	framed string
}

// Generate runs the full curation pipeline over the lesson text and
// returns at least one candidate. report is invoked with progress
// percentages (10 at start, interpolated to 60 through raw
// generation, 85 after balancing); pass nil to disable.
func (g *Generator) Generate(ctx context.Context, lessonText string, report ProgressFunc) []Candidate {
	if report == nil {
		report = func(int) {}
	}
	text := strings.TrimSpace(lessonText)
	if text == "" {
		text = "No text available for this lesson."
	}

	report(10)

	units := g.planUnits(text)
	g.log.Info("generation plan",
		zap.Int("units", len(units)),
		zap.Int("target", g.opts.TotalQuestions),
		zap.Int("words", WordCount(text)))

	raw := g.runUnits(ctx, units, report)
	monitoring.PipelineCandidates.WithLabelValues("validated").Add(float64(len(raw)))
	g.log.Info("raw candidates collected", zap.Int("count", len(raw)))

	// Cross-pass exact-text dedup; each pass already dedups within
	// itself during validation.
	candidates := dedupeByText(raw)

	filtered := candidates
	if g.filter != nil {
		filterCtx, span := tracing.Tracer.Start(ctx, "pipeline.filter")
		filtered = g.filter.Apply(filterCtx, text, candidates)
		span.End()
	}
	monitoring.PipelineCandidates.WithLabelValues("filtered").Add(float64(len(filtered)))

	selected := Balance(filtered, g.opts.TotalQuestions)
	monitoring.PipelineCandidates.WithLabelValues("selected").Add(float64(len(selected)))
	report(85)

	if len(selected) == 0 {
		g.log.Warn("no candidates survived the pipeline, using fallback question")
		selected = []Candidate{fallbackCandidate(text)}
	}

	return selected
}

// planUnits makes the chunking decision. Short lessons get focus
// passes over the whole text (or one single pass); long lessons are
// split into fixed-size word chunks with a bounded per-chunk quota.
func (g *Generator) planUnits(text string) []passUnit {
	if WordCount(text) < g.opts.ChunkThreshold {
		if !g.opts.FocusPasses {
			return []passUnit{{name: "single", text: text, quota: g.opts.TotalQuestions}}
		}
		quotas := focusQuotas(g.opts.TotalQuestions)
		units := make([]passUnit, 0, len(focusPasses))
		for i, fp := range focusPasses {
			if quotas[i] <= 0 {
				continue
			}
			units = append(units, passUnit{name: fp.Name, text: text, quota: quotas[i], framed: fp.Framing})
		}
		return units
	}

	chunks := SplitWords(text, g.opts.ChunkSize)
	units := make([]passUnit, len(chunks))
	for i, chunk := range chunks {
		quota := g.opts.TotalQuestions
		if quota > g.opts.MaxPerChunk {
			quota = g.opts.MaxPerChunk
		}
		units[i] = passUnit{name: "chunk", text: chunk, quota: quota}
	}
	return units
}

// runUnits fans the pass units out concurrently, bounded by the
// configured limit. Each unit is an independent failure domain: an
// oracle or extraction failure is logged and contributes nothing.
// Results are re-joined in unit order so the aggregate is
// deterministic regardless of completion order.
func (g *Generator) runUnits(ctx context.Context, units []passUnit, report ProgressFunc) []Candidate {
	results := make([][]Candidate, len(units))

	var mu sync.Mutex
	done := 0

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(g.opts.Concurrency)
	for i, unit := range units {
		i, unit := i, unit
		grp.Go(func() error {
			results[i] = g.runUnit(grpCtx, unit)

			mu.Lock()
			done++
			progress := 10 + 50*done/len(units)
			mu.Unlock()
			report(progress)
			return nil
		})
	}
	// Units never surface errors; failures are captured per unit.
	_ = grp.Wait()

	var all []Candidate
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}

func (g *Generator) runUnit(ctx context.Context, unit passUnit) []Candidate {
	raw, err := g.oracle.Complete(ctx, systemPrompt, userPrompt(unit.text, unit.quota, unit.framed), 0, false)
	if err != nil {
		g.log.Warn("generation pass failed",
			zap.String("pass", unit.name),
			zap.Error(err))
		return nil
	}

	objs := Extract(raw)
	if len(objs) == 0 {
		g.log.Warn("generation pass produced no parseable questions", zap.String("pass", unit.name))
		return nil
	}
	monitoring.PipelineCandidates.WithLabelValues("extracted").Add(float64(len(objs)))

	candidates := ValidateBatch(objs, g.log)
	g.log.Info("generation pass complete",
		zap.String("pass", unit.name),
		zap.Int("extracted", len(objs)),
		zap.Int("validated", len(candidates)))
	return candidates
}

func dedupeByText(candidates []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		key := strings.ToLower(c.Text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// fallbackCandidate guarantees downstream consumers always see at
// least one question for a processed lesson.
func fallbackCandidate(lessonText string) Candidate {
	answer := lessonText
	if len([]rune(answer)) > 200 {
		answer = string([]rune(answer)[:200]) + "..."
	}
	return Candidate{
		Kind:         KindTheory,
		Text:         "Summarize the main concepts covered in this lesson.",
		Answer:       answer,
		Difficulty:   DifficultyMedium,
		MaxScore:     3,
		CorrectIndex: -1,
	}
}
