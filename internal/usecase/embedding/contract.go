package embedding

import (
	"context"

	"github.com/kailas-cloud/emvex/internal/domain"
)

// Embedder vectorizes a batch of texts. It is the only capability the
// pipeline needs from a provider.
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string, opts domain.EmbedOptions) (domain.EmbeddingResult, error)
}

// ProgressFunc observes pipeline progress: done counts texts whose window
// has completed, total is the full input size. Advisory, may be nil.
type ProgressFunc func(done, total int)
