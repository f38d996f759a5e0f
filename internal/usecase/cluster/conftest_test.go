package cluster

import (
	"context"

	"github.com/kailas-cloud/emvex/internal/domain"
)

type mockLister struct {
	vectors   []domain.Vector
	listErr   error
	connectFn func(ctx context.Context, collection string) error

	connected string
}

func (m *mockLister) Connect(ctx context.Context, collection string) error {
	if m.connectFn != nil {
		return m.connectFn(ctx, collection)
	}
	m.connected = collection
	return nil
}

func (m *mockLister) ListVectors(_ context.Context) ([]domain.Vector, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.vectors, nil
}
