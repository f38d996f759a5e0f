// Package retrieval composes the embedding pipeline with a vector store:
// indexing embeds document texts and persists the vectors, querying embeds
// the question and searches. Every failure names the stage it came from, so
// a caller can tell a provider problem from a store problem.
package retrieval

import (
	"context"

	"github.com/google/uuid"

	"github.com/kailas-cloud/emvex/internal/domain"
)

// Service indexes documents into a collection and answers similarity queries.
// Documents and queries go through separate embedder chains, which lets each
// carry its own instruction prefix.
type Service struct {
	docs    Generator
	queries Generator
	store   Store
}

// New creates a retrieval service.
func New(docs, queries Generator, store Store) *Service {
	return &Service{docs: docs, queries: queries, store: store}
}

// Index embeds the document texts and writes the vectors to the collection.
// It returns the stored IDs in input order; documents without an explicit ID
// get a generated one.
func (s *Service) Index(
	ctx context.Context, collection string, docs []domain.Document,
) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	res, err := s.docs.Generate(ctx, texts, domain.EmbedOptions{})
	if err != nil {
		return nil, &domain.PipelineError{Stage: domain.StageEmbed, Err: err}
	}

	domain.TokenUsageFrom(ctx).Add(res.Usage.TotalTokens)

	if err := s.store.Connect(ctx, collection); err != nil {
		return nil, &domain.PipelineError{Stage: domain.StageStore, Err: err}
	}

	ids := make([]string, len(docs))
	vectors := make([]domain.Vector, len(docs))
	for i, d := range docs {
		id := d.ID
		if id == "" {
			id = uuid.NewString()
		}
		ids[i] = id
		vectors[i] = domain.Vector{
			ID:       id,
			Values:   res.Embeddings[i],
			Text:     d.Text,
			Metadata: d.Metadata,
		}
	}

	if err := s.store.Insert(ctx, vectors); err != nil {
		return nil, &domain.PipelineError{Stage: domain.StageStore, Err: err}
	}

	return ids, nil
}

// Query embeds the text as a batch of one and returns the most similar
// stored vectors, best first.
func (s *Service) Query(
	ctx context.Context, collection, text string, topK int, filter domain.Filter,
) ([]domain.SearchResult, error) {
	res, err := s.queries.Generate(ctx, []string{text}, domain.EmbedOptions{})
	if err != nil {
		return nil, &domain.PipelineError{Stage: domain.StageEmbed, Err: err}
	}

	domain.TokenUsageFrom(ctx).Add(res.Usage.TotalTokens)

	if err := s.store.Connect(ctx, collection); err != nil {
		return nil, &domain.PipelineError{Stage: domain.StageStore, Err: err}
	}

	results, err := s.store.Search(ctx, res.Embeddings[0], topK, filter)
	if err != nil {
		return nil, &domain.PipelineError{Stage: domain.StageStore, Err: err}
	}
	return results, nil
}
