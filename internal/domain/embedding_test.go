package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    []string
}

func (s *stubEmbedder) GenerateEmbeddings(
	_ context.Context, texts []string, _ EmbedOptions,
) (EmbeddingResult, error) {
	s.got = texts
	return s.result, s.err
}

func (s *stubEmbedder) ListModels(_ context.Context) ([]string, error) {
	return []string{"stub-model"}, nil
}

func (s *stubEmbedder) DefaultModel() string { return "stub-model" }

func TestInstructionEmbedder_PrependsInstruction(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{
		Embeddings: [][]float32{{0.1, 0.2, 0.3}},
	}}
	emb := NewInstructionEmbedder(inner, "search_document: ")

	result, err := emb.GenerateEmbeddings(context.Background(), []string{"hello world"}, EmbedOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got[0] != "search_document: hello world" {
		t.Errorf("expected prepended text, got %q", inner.got[0])
	}
	if len(result.Embeddings) != 1 {
		t.Errorf("expected 1 vector, got %d", len(result.Embeddings))
	}
}

func TestInstructionEmbedder_PrependsToEachText(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{
		Embeddings: [][]float32{{0.1}, {0.2}},
	}}
	emb := NewInstructionEmbedder(inner, "search: ")

	_, err := emb.GenerateEmbeddings(context.Background(), []string{"hello", "world"}, EmbedOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got[0] != "search: hello" || inner.got[1] != "search: world" {
		t.Errorf("expected prefixed texts, got %v", inner.got)
	}
}

func TestInstructionEmbedder_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	inner := &stubEmbedder{err: innerErr}
	emb := NewInstructionEmbedder(inner, "search_document: ")

	_, err := emb.GenerateEmbeddings(context.Background(), []string{"hello"}, EmbedOptions{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestInstructionEmbedder_EmptyInstruction(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embeddings: [][]float32{{0.5}}}}
	emb := NewInstructionEmbedder(inner, "")

	_, err := emb.GenerateEmbeddings(context.Background(), []string{"test"}, EmbedOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got[0] != "test" {
		t.Errorf("expected 'test', got %q", inner.got[0])
	}
}

func TestInstructionEmbedder_Delegation(t *testing.T) {
	inner := &stubEmbedder{}
	emb := NewInstructionEmbedder(inner, "q: ")

	if emb.DefaultModel() != "stub-model" {
		t.Errorf("expected delegated default model, got %q", emb.DefaultModel())
	}
	models, err := emb.ListModels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(models) != 1 || models[0] != "stub-model" {
		t.Errorf("expected delegated model list, got %v", models)
	}
}

func TestUsage_Add(t *testing.T) {
	u := Usage{PromptTokens: 5, TotalTokens: 7}
	u.Add(Usage{PromptTokens: 3, TotalTokens: 4})

	if u.PromptTokens != 8 || u.TotalTokens != 11 {
		t.Errorf("expected 8/11, got %d/%d", u.PromptTokens, u.TotalTokens)
	}
}
