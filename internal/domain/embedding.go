package domain

import (
	"context"
	"fmt"
)

// Embedder is the shared text vectorization contract between layers.
// GenerateEmbeddings returns one vector per input text, in input order.
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string, opts EmbedOptions) (EmbeddingResult, error)
	ListModels(ctx context.Context) ([]string, error)
	DefaultModel() string
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbedOptions carries per-request embedding parameters.
// Zero values mean provider defaults.
type EmbedOptions struct {
	Model      string
	Dimensions int
}

// Usage is the token accounting reported by the provider for one request.
type Usage struct {
	PromptTokens int
	TotalTokens  int
}

// Add accumulates usage across chunked requests.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.TotalTokens += other.TotalTokens
}

// EmbeddingResult carries embedding vectors in input order plus the model
// that produced them and aggregate token usage.
type EmbeddingResult struct {
	Embeddings [][]float32
	Model      string
	Usage      Usage
}

// InstructionEmbedder is a domain decorator that prepends instruction text
// to every input before embedding. Instruction-tuned models score better
// when documents and queries carry their task prefix.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder creates a decorator that prepends instruction text.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// GenerateEmbeddings prepends the instruction to each text and delegates.
func (e *InstructionEmbedder) GenerateEmbeddings(
	ctx context.Context, texts []string, opts EmbedOptions,
) (EmbeddingResult, error) {
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = e.instruction + t
	}

	res, err := e.inner.GenerateEmbeddings(ctx, prefixed, opts)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return res, nil
}

// ListModels delegates to the inner embedder.
func (e *InstructionEmbedder) ListModels(ctx context.Context) ([]string, error) {
	return e.inner.ListModels(ctx)
}

// DefaultModel delegates to the inner embedder.
func (e *InstructionEmbedder) DefaultModel() string {
	return e.inner.DefaultModel()
}
