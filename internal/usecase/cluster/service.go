// Package cluster partitions the vectors of a stored collection into groups.
package cluster

import (
	"context"
	"fmt"

	domcluster "github.com/kailas-cloud/emvex/internal/domain/cluster"
)

// Grouped is the outcome of one clustering run: the final centroids and the
// member vector IDs of each cluster, index-aligned with Centroids.
type Grouped struct {
	Centroids  [][]float32
	Clusters   [][]string
	Iterations int
}

// Service loads a collection and runs k-means over its vectors.
type Service struct {
	store Lister
}

func New(store Lister) *Service {
	return &Service{store: store}
}

// Group clusters every vector of the collection into k groups. IDs inside a
// cluster keep the store's listing order. Runs with the same seed over the
// same collection produce identical groups.
func (s *Service) Group(
	ctx context.Context, collection string, k int, opts domcluster.Options,
) (Grouped, error) {
	if err := s.store.Connect(ctx, collection); err != nil {
		return Grouped{}, fmt.Errorf("connect %q: %w", collection, err)
	}

	vectors, err := s.store.ListVectors(ctx)
	if err != nil {
		return Grouped{}, fmt.Errorf("list vectors: %w", err)
	}

	values := make([][]float32, len(vectors))
	for i, v := range vectors {
		values[i] = v.Values
	}

	result, err := domcluster.KMeans(values, k, opts)
	if err != nil {
		return Grouped{}, err
	}

	clusters := make([][]string, k)
	for i, c := range result.Assignments {
		clusters[c] = append(clusters[c], vectors[i].ID)
	}

	return Grouped{
		Centroids:  result.Centroids,
		Clusters:   clusters,
		Iterations: result.Iterations,
	}, nil
}
