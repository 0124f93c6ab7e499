package ai

import (
	"math"
	"testing"
)

func TestCacheKeyNormalization(t *testing.T) {
	base := CacheKey("Photosynthesis converts light energy")
	if CacheKey("  photosynthesis converts light energy  ") != base {
		t.Fatalf("cache key should ignore case and surrounding whitespace")
	}
	if CacheKey("PHOTOSYNTHESIS CONVERTS LIGHT ENERGY") != base {
		t.Fatalf("cache key should be case-insensitive")
	}
	if CacheKey("a different text") == base {
		t.Fatalf("distinct texts must not collide")
	}
	if len(base) != 64 {
		t.Fatalf("cache key length = %d, want 64 hex chars", len(base))
	}
}

func TestNormalize(t *testing.T) {
	vec := normalize([]float32{3, 4})
	if math.Abs(float64(vec[0])-0.6) > 1e-6 || math.Abs(float64(vec[1])-0.8) > 1e-6 {
		t.Fatalf("normalize([3 4]) = %v, want [0.6 0.8]", vec)
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-6 {
		t.Fatalf("normalized vector has squared norm %f, want 1", norm)
	}

	zero := normalize([]float32{0, 0, 0})
	for _, v := range zero {
		if v != 0 {
			t.Fatalf("zero vector should stay zero, got %v", zero)
		}
	}
}
