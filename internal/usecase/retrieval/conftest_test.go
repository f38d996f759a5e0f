package retrieval

import (
	"context"

	"github.com/kailas-cloud/emvex/internal/domain"
)

type mockGenerator struct {
	result domain.EmbeddingResult
	err    error

	calls     int
	lastTexts []string
}

func (m *mockGenerator) Generate(
	_ context.Context, texts []string, _ domain.EmbedOptions,
) (domain.EmbeddingResult, error) {
	m.calls++
	m.lastTexts = append([]string(nil), texts...)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	if m.result.Embeddings != nil {
		return m.result, nil
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = []float32{float32(i), 1}
	}
	return domain.EmbeddingResult{
		Embeddings: embeddings,
		Model:      "mock-model",
		Usage:      domain.Usage{PromptTokens: 2 * len(texts), TotalTokens: 2 * len(texts)},
	}, nil
}

type mockStore struct {
	connectFn func(ctx context.Context, collection string) error
	insertFn  func(ctx context.Context, vectors []domain.Vector) error
	searchFn  func(ctx context.Context, query []float32, topK int, filter domain.Filter) ([]domain.SearchResult, error)

	connected string
	inserted  []domain.Vector

	lastQuery  []float32
	lastTopK   int
	lastFilter domain.Filter
}

func (m *mockStore) Connect(ctx context.Context, collection string) error {
	m.connected = collection
	if m.connectFn != nil {
		return m.connectFn(ctx, collection)
	}
	return nil
}

func (m *mockStore) Insert(ctx context.Context, vectors []domain.Vector) error {
	m.inserted = vectors
	if m.insertFn != nil {
		return m.insertFn(ctx, vectors)
	}
	return nil
}

func (m *mockStore) Search(
	ctx context.Context, query []float32, topK int, filter domain.Filter,
) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastTopK = topK
	m.lastFilter = filter
	if m.searchFn != nil {
		return m.searchFn(ctx, query, topK, filter)
	}
	return nil, nil
}
