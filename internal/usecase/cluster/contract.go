package cluster

import (
	"context"

	"github.com/kailas-cloud/emvex/internal/domain"
)

// Lister is the slice of the store contract the grouping service needs (ISP).
// ListVectors must return vectors in insertion order.
type Lister interface {
	Connect(ctx context.Context, collection string) error
	ListVectors(ctx context.Context) ([]domain.Vector, error)
}
