// Package embcache caches embedding vectors in a key-value store, keyed by
// the text content and the model that produced them. Identical texts skip
// the provider entirely, so re-indexing an unchanged corpus costs nothing.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/emvex/internal/domain"
	"github.com/kailas-cloud/emvex/internal/store"
)

var cacheKeyPrefix = domain.KeyPrefix + "emb_cache:"

// kv is the consumer interface for the embedding cache (ISP).
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CachedEmbedder is a read-through cache in front of an embedding provider.
// Cached texts cost zero tokens; only misses reach the inner embedder.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      kv
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

var _ domain.Embedder = (*CachedEmbedder)(nil)

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Embedder,
	s kv,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{
		inner:      inner,
		store:      s,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// GenerateEmbeddings serves each text from cache when possible and sends
// only the misses to the inner embedder, reassembling the output in input
// order. Usage reflects the misses only.
func (c *CachedEmbedder) GenerateEmbeddings(
	ctx context.Context, texts []string, opts domain.EmbedOptions,
) (domain.EmbeddingResult, error) {
	if len(texts) == 0 {
		return c.inner.GenerateEmbeddings(ctx, texts, opts)
	}

	model := opts.Model
	if model == "" {
		model = c.inner.DefaultModel()
	}

	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		key := c.cacheKey(model, opts.Dimensions, text)
		if vec, ok := c.getFromCache(ctx, key); ok {
			c.incCache("hit")
			out[i] = vec
			continue
		}
		c.incCache("miss")
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missIdx) == 0 {
		return domain.EmbeddingResult{Embeddings: out, Model: model}, nil
	}

	result, err := c.inner.GenerateEmbeddings(ctx, missTexts, opts)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed misses: %w", err)
	}
	if len(result.Embeddings) != len(missTexts) {
		return domain.EmbeddingResult{}, fmt.Errorf(
			"embedding count mismatch: sent %d texts, got %d embeddings: %w",
			len(missTexts), len(result.Embeddings), domain.ErrNetwork)
	}

	for j, i := range missIdx {
		out[i] = result.Embeddings[j]
		c.putToCache(ctx, c.cacheKey(model, opts.Dimensions, texts[i]), result.Embeddings[j])
	}

	return domain.EmbeddingResult{
		Embeddings: out,
		Model:      result.Model,
		Usage:      result.Usage,
	}, nil
}

// ListModels delegates to the inner embedder.
func (c *CachedEmbedder) ListModels(ctx context.Context) ([]string, error) {
	return c.inner.ListModels(ctx)
}

// DefaultModel delegates to the inner embedder.
func (c *CachedEmbedder) DefaultModel() string {
	return c.inner.DefaultModel()
}

// HealthCheck delegates when the inner embedder supports it.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey hashes the model, requested dimensions, and text together.
// The same text embedded by a different model must never share an entry.
func (c *CachedEmbedder) cacheKey(model string, dimensions int, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	var dims [8]byte
	binary.LittleEndian.PutUint64(dims[:], uint64(dimensions))
	h.Write(dims[:])
	h.Write([]byte(text))
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedEmbedder) getFromCache(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return vec, true
}

func (c *CachedEmbedder) putToCache(ctx context.Context, key string, vec []float32) {
	data := vectorToCacheBytes(vec)
	if err := c.store.Set(ctx, key, data); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
