package embcache

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/emvex/internal/domain"
	"github.com/kailas-cloud/emvex/internal/store"
)

type mockEmbedder struct {
	vector []float32
	tokens int
	model  string
	err    error

	calls     int
	lastTexts []string
}

func (m *mockEmbedder) GenerateEmbeddings(
	_ context.Context, texts []string, _ domain.EmbedOptions,
) (domain.EmbeddingResult, error) {
	m.calls++
	m.lastTexts = append([]string(nil), texts...)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	if len(texts) == 0 {
		return domain.EmbeddingResult{Model: m.model}, nil
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = m.vector
	}
	return domain.EmbeddingResult{
		Embeddings: embeddings,
		Model:      m.model,
		Usage: domain.Usage{
			PromptTokens: m.tokens * len(texts),
			TotalTokens:  m.tokens * len(texts),
		},
	}, nil
}

func (m *mockEmbedder) ListModels(_ context.Context) ([]string, error) {
	return []string{m.model}, nil
}

func (m *mockEmbedder) DefaultModel() string { return m.model }

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, store.ErrKeyNotFound
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder) (*CachedEmbedder, *mockKVStore) {
	t.Helper()
	if inner.model == "" {
		inner.model = "mock-model"
	}
	ms := &mockKVStore{}
	ce := New(inner, ms, nil, zap.NewNop())
	return ce, ms
}
