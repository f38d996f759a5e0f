package emvex

import (
	"context"
	"fmt"
)

// Hit is a typed search result.
type Hit[T any] struct {
	Item  T
	Score float64
}

// SearchBuilder is a fluent builder for typed semantic search queries.
type SearchBuilder[T any] struct {
	idx *TypedIndex[T]

	query   string
	filters Filter
	topK    int
}

// Query sets the text to search for.
func (b *SearchBuilder[T]) Query(q string) *SearchBuilder[T] {
	b.query = q
	return b
}

// Where adds an exact-match metadata filter. Multiple conditions must all
// hold.
func (b *SearchBuilder[T]) Where(key, value string) *SearchBuilder[T] {
	if b.filters == nil {
		b.filters = make(Filter)
	}
	b.filters[key] = value
	return b
}

// TopK sets the maximum number of results. Defaults to 10.
func (b *SearchBuilder[T]) TopK(k int) *SearchBuilder[T] {
	b.topK = k
	return b
}

// Do executes the search and returns typed results, best first.
func (b *SearchBuilder[T]) Do(ctx context.Context) ([]Hit[T], error) {
	topK := b.topK
	if topK == 0 {
		topK = 10
	}

	results, err := b.idx.client.Query(ctx, b.idx.name, b.query, topK, b.filters)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", b.idx.name, err)
	}
	return b.toHits(results), nil
}

func (b *SearchBuilder[T]) toHits(results []SearchResult) []Hit[T] {
	hits := make([]Hit[T], len(results))
	for i, r := range results {
		item, ok := b.idx.meta.fromResult(r).(T)
		if !ok {
			continue
		}
		hits[i] = Hit[T]{Item: item, Score: r.Score}
	}
	return hits
}
