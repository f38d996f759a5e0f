package embcache

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/emvex/internal/domain"
	"github.com/kailas-cloud/emvex/internal/store"
)

func TestGenerateEmbeddings_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{vector: []float32{0.1, 0.2, 0.3}, tokens: 10}
	ce, ms := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	// GET → ErrKeyNotFound (cache miss)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, store.ErrKeyNotFound
	}

	// SET → OK (cache put)
	var setCount int
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		setCount++
		return nil
	}

	result, err := ce.GenerateEmbeddings(ctx, []string{"a", "b"}, domain.EmbedOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embeddings) != 2 || result.Embeddings[0][0] != 0.1 {
		t.Fatalf("unexpected embeddings: %v", result.Embeddings)
	}
	if result.Usage.TotalTokens != 20 {
		t.Fatalf("expected TotalTokens=20, got %d", result.Usage.TotalTokens)
	}
	if setCount != 2 {
		t.Errorf("expected 2 cache puts, got %d", setCount)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.calls)
	}
}

func TestGenerateEmbeddings_AllHits(t *testing.T) {
	inner := &mockEmbedder{vector: []float32{0.1}}
	ce, ms := newTestCachedEmbedder(t, inner)

	cached := vectorToCacheBytes([]float32{0.4, 0.5, 0.6})
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return cached, nil
	}

	result, err := ce.GenerateEmbeddings(context.Background(), []string{"a", "b"}, domain.EmbedOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embeddings) != 2 || result.Embeddings[0][0] != 0.4 {
		t.Fatalf("expected cached vectors, got: %v", result.Embeddings)
	}
	// Всё из кеша — 0 токенов, 0 вызовов inner
	if result.Usage.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on all hits, got %d", result.Usage.TotalTokens)
	}
	if inner.calls != 0 {
		t.Errorf("expected 0 inner calls, got %d", inner.calls)
	}
	if result.Model != "mock-model" {
		t.Errorf("expected resolved model on all-hit path, got %q", result.Model)
	}
}

func TestGenerateEmbeddings_MixedHitsMisses(t *testing.T) {
	inner := &mockEmbedder{vector: []float32{0.5}, tokens: 3}
	ce, ms := newTestCachedEmbedder(t, inner)

	cachedVec := vectorToCacheBytes([]float32{0.9})
	callNum := 0
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		callNum++
		if callNum == 2 { // second text is cached
			return cachedVec, nil
		}
		return nil, store.ErrKeyNotFound
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte) error { return nil }

	result, err := ce.GenerateEmbeddings(
		context.Background(), []string{"miss1", "hit1", "miss2"}, domain.EmbedOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(result.Embeddings))
	}
	// hit1 keeps its input position with the cached vector
	if result.Embeddings[1][0] != 0.9 {
		t.Errorf("expected cached vec at index 1, got %v", result.Embeddings[1])
	}
	// misses get inner vectors
	if result.Embeddings[0][0] != 0.5 || result.Embeddings[2][0] != 0.5 {
		t.Errorf("expected inner vec for misses, got %v, %v", result.Embeddings[0], result.Embeddings[2])
	}
	// The inner embedder sees only the misses, in input order
	if len(inner.lastTexts) != 2 || inner.lastTexts[0] != "miss1" || inner.lastTexts[1] != "miss2" {
		t.Errorf("expected inner texts [miss1 miss2], got %v", inner.lastTexts)
	}
	// Only misses consume tokens
	if result.Usage.TotalTokens != 6 {
		t.Errorf("expected TotalTokens=6 (2 misses * 3), got %d", result.Usage.TotalTokens)
	}
}

func TestGenerateEmbeddings_KeyVariesByModel(t *testing.T) {
	inner := &mockEmbedder{vector: []float32{0.1}}
	ce, ms := newTestCachedEmbedder(t, inner)

	var keys []string
	ms.getFn = func(_ context.Context, key string) ([]byte, error) {
		keys = append(keys, key)
		return nil, store.ErrKeyNotFound
	}

	ctx := context.Background()
	if _, err := ce.GenerateEmbeddings(ctx, []string{"same text"}, domain.EmbedOptions{Model: "model-a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ce.GenerateEmbeddings(ctx, []string{"same text"}, domain.EmbedOptions{Model: "model-b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ce.GenerateEmbeddings(ctx, []string{"same text"}, domain.EmbedOptions{Model: "model-a", Dimensions: 256}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(keys) != 3 {
		t.Fatalf("expected 3 cache lookups, got %d", len(keys))
	}
	if keys[0] == keys[1] || keys[0] == keys[2] || keys[1] == keys[2] {
		t.Errorf("expected distinct keys per model and dimensions, got %v", keys)
	}
}

func TestGenerateEmbeddings_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	ce, ms := newTestCachedEmbedder(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, store.ErrKeyNotFound
	}

	_, err := ce.GenerateEmbeddings(context.Background(), []string{"a"}, domain.EmbedOptions{})
	if err == nil {
		t.Fatal("expected error from inner embedder")
	}
}

func TestGenerateEmbeddings_CorruptEntryIsMiss(t *testing.T) {
	inner := &mockEmbedder{vector: []float32{0.5}, tokens: 1}
	ce, ms := newTestCachedEmbedder(t, inner)

	// 5 bytes is not a valid float32 sequence
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte{1, 2, 3, 4, 5}, nil
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte) error { return nil }

	result, err := ce.GenerateEmbeddings(context.Background(), []string{"a"}, domain.EmbedOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embeddings[0][0] != 0.5 {
		t.Errorf("expected inner vector after corrupt entry, got %v", result.Embeddings[0])
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.calls)
	}
}

func TestGenerateEmbeddings_StoreErrorsAreSoft(t *testing.T) {
	inner := &mockEmbedder{vector: []float32{0.5}, tokens: 1}
	ce, ms := newTestCachedEmbedder(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, errors.New("connection reset")
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		return errors.New("write timeout")
	}

	// Cache failures degrade to misses, they never fail the request
	result, err := ce.GenerateEmbeddings(context.Background(), []string{"a"}, domain.EmbedOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embeddings[0][0] != 0.5 {
		t.Errorf("expected inner vector, got %v", result.Embeddings[0])
	}
}

func TestGenerateEmbeddings_CountMismatch(t *testing.T) {
	inner := &mockEmbedder{vector: []float32{0.1}}
	ce, ms := newTestCachedEmbedder(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, store.ErrKeyNotFound
	}
	// Force the inner mock to return a single fixed result for two misses
	inner.err = nil
	broken := &shortEmbedder{inner: inner}
	ce = New(broken, ms, nil, nil)

	_, err := ce.GenerateEmbeddings(context.Background(), []string{"a", "b"}, domain.EmbedOptions{})
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork on count mismatch, got %v", err)
	}
}

// shortEmbedder drops the last vector from every response.
type shortEmbedder struct {
	inner domain.Embedder
}

func (s *shortEmbedder) GenerateEmbeddings(
	ctx context.Context, texts []string, opts domain.EmbedOptions,
) (domain.EmbeddingResult, error) {
	res, err := s.inner.GenerateEmbeddings(ctx, texts, opts)
	if err != nil || len(res.Embeddings) == 0 {
		return res, err
	}
	res.Embeddings = res.Embeddings[:len(res.Embeddings)-1]
	return res, err
}

func (s *shortEmbedder) ListModels(ctx context.Context) ([]string, error) {
	return s.inner.ListModels(ctx)
}

func (s *shortEmbedder) DefaultModel() string { return s.inner.DefaultModel() }

func TestGenerateEmbeddings_Empty(t *testing.T) {
	inner := &mockEmbedder{}
	ce, _ := newTestCachedEmbedder(t, inner)

	result, err := ce.GenerateEmbeddings(context.Background(), nil, domain.EmbedOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embeddings != nil {
		t.Errorf("expected nil embeddings for empty input")
	}
}
