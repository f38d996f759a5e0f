package retrieval

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/kailas-cloud/emvex/internal/domain"
)

func TestIndex_EmbedsAndInserts(t *testing.T) {
	docsGen := &mockGenerator{}
	store := &mockStore{}
	svc := New(docsGen, &mockGenerator{}, store)

	docs := []domain.Document{
		{ID: "doc-1", Text: "first", Metadata: map[string]string{"lang": "en"}},
		{Text: "second"},
		{Text: "third"},
	}

	ids, err := svc.Index(context.Background(), "articles", docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(ids))
	}
	if ids[0] != "doc-1" {
		t.Errorf("expected explicit id to be kept, got %q", ids[0])
	}
	for _, id := range ids[1:] {
		if _, parseErr := uuid.Parse(id); parseErr != nil {
			t.Errorf("expected generated uuid, got %q: %v", id, parseErr)
		}
	}

	if store.connected != "articles" {
		t.Errorf("expected connect to articles, got %q", store.connected)
	}
	if len(store.inserted) != 3 {
		t.Fatalf("expected 3 inserted vectors, got %d", len(store.inserted))
	}
	if store.inserted[1].ID != ids[1] {
		t.Errorf("expected vector id %q, got %q", ids[1], store.inserted[1].ID)
	}
	if store.inserted[0].Text != "first" || store.inserted[0].Metadata["lang"] != "en" {
		t.Errorf("expected text and metadata carried over, got %+v", store.inserted[0])
	}
	// Vector i must hold the embedding of text i.
	if store.inserted[2].Values[0] != 2 {
		t.Errorf("expected third vector to carry the third embedding, got %v", store.inserted[2].Values)
	}
	if docsGen.calls != 1 || len(docsGen.lastTexts) != 3 {
		t.Errorf("expected one pipeline call with 3 texts, got %d calls with %v", docsGen.calls, docsGen.lastTexts)
	}
}

func TestIndex_Empty(t *testing.T) {
	docsGen := &mockGenerator{}
	store := &mockStore{}
	svc := New(docsGen, &mockGenerator{}, store)

	ids, err := svc.Index(context.Background(), "articles", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids != nil {
		t.Errorf("expected nil ids, got %v", ids)
	}
	if docsGen.calls != 0 {
		t.Errorf("expected no pipeline calls, got %d", docsGen.calls)
	}
	if store.connected != "" {
		t.Errorf("expected no store connect, got %q", store.connected)
	}
}

func TestIndex_EmbedErrorIsEmbedStage(t *testing.T) {
	docsGen := &mockGenerator{err: fmt.Errorf("embed: %w", domain.ErrRateLimited)}
	store := &mockStore{}
	svc := New(docsGen, &mockGenerator{}, store)

	_, err := svc.Index(context.Background(), "articles", []domain.Document{{Text: "a"}})
	if err == nil {
		t.Fatal("expected error")
	}

	var pe *domain.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PipelineError, got %T: %v", err, err)
	}
	if pe.Stage != domain.StageEmbed {
		t.Errorf("expected embed stage, got %q", pe.Stage)
	}
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("expected underlying ErrRateLimited, got %v", err)
	}
	if store.connected != "" {
		t.Error("store must not be touched when embedding fails")
	}
}

func TestIndex_ConnectErrorIsStoreStage(t *testing.T) {
	store := &mockStore{
		connectFn: func(_ context.Context, _ string) error {
			return domain.ErrNetwork
		},
	}
	svc := New(&mockGenerator{}, &mockGenerator{}, store)

	_, err := svc.Index(context.Background(), "articles", []domain.Document{{Text: "a"}})

	var pe *domain.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PipelineError, got %T: %v", err, err)
	}
	if pe.Stage != domain.StageStore {
		t.Errorf("expected store stage, got %q", pe.Stage)
	}
	if !errors.Is(err, domain.ErrNetwork) {
		t.Errorf("expected underlying ErrNetwork, got %v", err)
	}
}

func TestIndex_InsertErrorIsStoreStage(t *testing.T) {
	store := &mockStore{
		insertFn: func(_ context.Context, _ []domain.Vector) error {
			return errors.New("write failed")
		},
	}
	svc := New(&mockGenerator{}, &mockGenerator{}, store)

	_, err := svc.Index(context.Background(), "articles", []domain.Document{{Text: "a"}})

	var pe *domain.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PipelineError, got %T: %v", err, err)
	}
	if pe.Stage != domain.StageStore {
		t.Errorf("expected store stage, got %q", pe.Stage)
	}
}

func TestIndex_CollectsUsage(t *testing.T) {
	docsGen := &mockGenerator{result: domain.EmbeddingResult{
		Embeddings: [][]float32{{0.1}},
		Usage:      domain.Usage{PromptTokens: 42, TotalTokens: 42},
	}}
	svc := New(docsGen, &mockGenerator{}, &mockStore{})

	ctx, usage := domain.WithTokenUsage(context.Background())
	if _, err := svc.Index(ctx, "articles", []domain.Document{{Text: "a"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if usage.Tokens != 42 {
		t.Errorf("expected 42 tokens collected, got %d", usage.Tokens)
	}
	if usage.Calls != 1 {
		t.Errorf("expected one generation recorded, got %d", usage.Calls)
	}
}

func TestQuery_SearchesStore(t *testing.T) {
	queryGen := &mockGenerator{result: domain.EmbeddingResult{
		Embeddings: [][]float32{{0.7, 0.7}},
		Usage:      domain.Usage{TotalTokens: 3},
	}}
	store := &mockStore{
		searchFn: func(_ context.Context, _ []float32, _ int, _ domain.Filter) ([]domain.SearchResult, error) {
			return []domain.SearchResult{{ID: "v1", Score: 0.93}}, nil
		},
	}
	svc := New(&mockGenerator{}, queryGen, store)

	results, err := svc.Query(context.Background(), "articles", "what is emvex", 5,
		domain.Filter{"lang": "en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 || results[0].ID != "v1" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if queryGen.calls != 1 || len(queryGen.lastTexts) != 1 || queryGen.lastTexts[0] != "what is emvex" {
		t.Errorf("expected one pipeline call with the query text, got %v", queryGen.lastTexts)
	}
	if store.connected != "articles" {
		t.Errorf("expected connect to articles, got %q", store.connected)
	}
	if store.lastQuery[0] != 0.7 {
		t.Errorf("expected search with the query embedding, got %v", store.lastQuery)
	}
	if store.lastTopK != 5 {
		t.Errorf("expected topK=5, got %d", store.lastTopK)
	}
	if store.lastFilter["lang"] != "en" {
		t.Errorf("expected filter passthrough, got %v", store.lastFilter)
	}
}

func TestQuery_EmbedErrorIsEmbedStage(t *testing.T) {
	queryGen := &mockGenerator{err: fmt.Errorf("%w: text 0 is empty", domain.ErrInvalidInput)}
	svc := New(&mockGenerator{}, queryGen, &mockStore{})

	_, err := svc.Query(context.Background(), "articles", "", 5, nil)

	var pe *domain.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PipelineError, got %T: %v", err, err)
	}
	if pe.Stage != domain.StageEmbed {
		t.Errorf("expected embed stage, got %q", pe.Stage)
	}
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected underlying ErrInvalidInput, got %v", err)
	}
}

func TestQuery_SearchErrorIsStoreStage(t *testing.T) {
	store := &mockStore{
		searchFn: func(_ context.Context, _ []float32, _ int, _ domain.Filter) ([]domain.SearchResult, error) {
			return nil, domain.ErrNotConnected
		},
	}
	svc := New(&mockGenerator{}, &mockGenerator{}, store)

	_, err := svc.Query(context.Background(), "articles", "q", 5, nil)

	var pe *domain.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PipelineError, got %T: %v", err, err)
	}
	if pe.Stage != domain.StageStore {
		t.Errorf("expected store stage, got %q", pe.Stage)
	}
	if !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("expected underlying ErrNotConnected, got %v", err)
	}
}
