package ai

import (
	"context"
	"crypto/sha256"
	"edu_ai_backend/internal/config"
	"edu_ai_backend/pkg/monitoring"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	defaultEmbedTimeout  = 30 * time.Second
	defaultEmbedCacheTTL = 7 * 24 * time.Hour
)

// Embedder maps text to unit-length vectors. Results are cached by a
// content hash of the normalized text: a write-once in-process map
// backed by an optional Redis tier shared across instances. Entries
// are never updated in place, so concurrent readers are safe.
type Embedder struct {
	api     *openai.Client
	model   openai.EmbeddingModel
	timeout time.Duration

	mu  sync.RWMutex
	mem map[string][]float32

	rdb      *redis.Client
	cacheTTL time.Duration

	log *zap.Logger
}

func NewEmbedder(aiCfg config.AIConfig, cfg config.EmbeddingConfig, rdb *redis.Client, log *zap.Logger) *Embedder {
	apiCfg := openai.DefaultConfig(aiCfg.APIKey)
	if aiCfg.BaseURL != "" {
		apiCfg.BaseURL = aiCfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultEmbedTimeout
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultEmbedCacheTTL
	}

	return &Embedder{
		api:      openai.NewClientWithConfig(apiCfg),
		model:    openai.EmbeddingModel(cfg.Model),
		timeout:  timeout,
		mem:      make(map[string][]float32),
		rdb:      rdb,
		cacheTTL: ttl,
		log:      log,
	}
}

// CacheKey returns the content hash used to address an embedding.
func CacheKey(text string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(text))))
	return hex.EncodeToString(sum[:])
}

// EmbedBatch returns one unit vector per input text, computing only
// the cache misses in a single API call. Input order is preserved.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	keys := make([]string, len(texts))

	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		keys[i] = CacheKey(text)
		if vec := e.lookup(ctx, keys[i]); vec != nil {
			monitoring.EmbeddingCacheHits.WithLabelValues("hit").Inc()
			vectors[i] = vec
			continue
		}
		monitoring.EmbeddingCacheHits.WithLabelValues("miss").Inc()
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return vectors, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.api.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
		Input: missTexts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding call failed: %w", err)
	}
	if len(resp.Data) != len(missTexts) {
		return nil, fmt.Errorf("embedding call returned %d vectors for %d inputs", len(resp.Data), len(missTexts))
	}

	for j, data := range resp.Data {
		vec := normalize(data.Embedding)
		i := missIdx[j]
		vectors[i] = vec
		e.store(ctx, keys[i], vec)
	}

	return vectors, nil
}

// Embed is the single-text convenience wrapper around EmbedBatch.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *Embedder) lookup(ctx context.Context, key string) []float32 {
	e.mu.RLock()
	vec, ok := e.mem[key]
	e.mu.RUnlock()
	if ok {
		return vec
	}

	if e.rdb == nil {
		return nil
	}
	raw, err := e.rdb.Get(ctx, redisKey(key)).Result()
	if err != nil {
		if err != redis.Nil {
			e.log.Warn("embedding cache read failed", zap.Error(err))
		}
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		e.log.Warn("embedding cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil
	}

	e.mu.Lock()
	e.mem[key] = vec
	e.mu.Unlock()
	return vec
}

func (e *Embedder) store(ctx context.Context, key string, vec []float32) {
	e.mu.Lock()
	// Write-once: the first vector for a hash wins.
	if _, ok := e.mem[key]; !ok {
		e.mem[key] = vec
	}
	e.mu.Unlock()

	if e.rdb == nil {
		return
	}
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := e.rdb.SetNX(ctx, redisKey(key), raw, e.cacheTTL).Err(); err != nil {
		e.log.Warn("embedding cache write failed", zap.Error(err))
	}
}

func redisKey(hash string) string {
	return "emb:" + hash
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
