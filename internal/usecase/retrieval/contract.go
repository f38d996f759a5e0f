package retrieval

import (
	"context"

	"github.com/kailas-cloud/emvex/internal/domain"
)

// Generator runs texts through the chunked embedding pipeline.
type Generator interface {
	Generate(ctx context.Context, texts []string, opts domain.EmbedOptions) (domain.EmbeddingResult, error)
}

// Store is the consumer interface for vector persistence (ISP).
type Store interface {
	Connect(ctx context.Context, collection string) error
	Insert(ctx context.Context, vectors []domain.Vector) error
	Search(ctx context.Context, query []float32, topK int, filter domain.Filter) ([]domain.SearchResult, error)
}
