package pipeline

import (
	"context"
	"math"

	"go.uber.org/zap"
)

// Embedder is the contract the filter needs from the embedding
// service: one unit vector per input text, order preserved,
// deterministic for identical input.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Filter drops candidates that are off-topic relative to the lesson
// text (relevance gate) or too close to an already-kept candidate
// (duplicate gate). Filtering is a quality improvement, not a
// correctness requirement: if the embedding service is unavailable the
// input passes through unchanged.
type Filter struct {
	emb       Embedder
	relevance float64
	duplicate float64
	log       *zap.Logger
}

func NewFilter(emb Embedder, relevanceThreshold, duplicateThreshold float64, log *zap.Logger) *Filter {
	if relevanceThreshold <= 0 {
		relevanceThreshold = DefaultRelevanceThreshold
	}
	if duplicateThreshold <= 0 {
		duplicateThreshold = DefaultDuplicateThreshold
	}
	return &Filter{emb: emb, relevance: relevanceThreshold, duplicate: duplicateThreshold, log: log}
}

// Apply runs both gates over the candidates in their original order.
// The duplicate gate is greedy and single-pass: a candidate survives
// only if it is below the duplicate threshold against every previously
// kept candidate, so the first of a near-identical pair wins.
func (f *Filter) Apply(ctx context.Context, lessonText string, candidates []Candidate) []Candidate {
	if len(candidates) == 0 || f.emb == nil {
		return candidates
	}

	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, lessonText)
	for _, c := range candidates {
		texts = append(texts, c.Text)
	}

	vectors, err := f.emb.EmbedBatch(ctx, texts)
	if err != nil {
		f.log.Warn("embedding service unavailable, skipping relevance/duplicate filter", zap.Error(err))
		return candidates
	}

	lessonVec := vectors[0]
	candVecs := vectors[1:]

	kept := make([]Candidate, 0, len(candidates))
	var keptVecs [][]float32
	for i, c := range candidates {
		if cosine(lessonVec, candVecs[i]) < f.relevance {
			continue
		}

		duplicate := false
		for _, kv := range keptVecs {
			if cosine(candVecs[i], kv) >= f.duplicate {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		kept = append(kept, c)
		keptVecs = append(keptVecs, candVecs[i])
	}

	f.log.Info("semantic filter applied",
		zap.Int("in", len(candidates)),
		zap.Int("kept", len(kept)),
		zap.Float64("relevance_threshold", f.relevance),
		zap.Float64("duplicate_threshold", f.duplicate))

	return kept
}

// cosine computes cosine similarity. Embeddings arrive normalized, so
// this reduces to a dot product, but dividing by the norms keeps the
// result correct for arbitrary vectors too.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
