package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/emvex/internal/domain"
	"github.com/kailas-cloud/emvex/internal/metrics"
)

// Instrumented decorates a Provider with Prometheus metrics and zap logging.
// It always satisfies VectorLister; when the wrapped backend cannot enumerate
// vectors, ListVectors reports ErrUnsupportedOption.
type Instrumented struct {
	inner   Provider
	backend string
	logger  *zap.Logger
}

var (
	_ Provider     = (*Instrumented)(nil)
	_ VectorLister = (*Instrumented)(nil)
)

// NewInstrumented wraps inner. The backend label names the driver in metrics.
func NewInstrumented(inner Provider, backend string, logger *zap.Logger) *Instrumented {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Instrumented{inner: inner, backend: backend, logger: logger}
}

func (s *Instrumented) Connect(ctx context.Context, collection string) error {
	start := time.Now()
	err := s.inner.Connect(ctx, collection)
	s.observe(OpConnect, start, err)
	if err == nil {
		s.logger.Info("collection connected",
			zap.String("backend", s.backend),
			zap.String("collection", collection))
	}
	return err
}

func (s *Instrumented) Insert(ctx context.Context, vectors []domain.Vector) error {
	start := time.Now()
	err := s.inner.Insert(ctx, vectors)
	s.observe(OpInsert, start, err)
	if err == nil {
		metrics.StoreVectorsInserted.WithLabelValues(s.backend).Add(float64(len(vectors)))
	}
	return err
}

func (s *Instrumented) Search(ctx context.Context, query []float32, topK int, filter domain.Filter) ([]domain.SearchResult, error) {
	start := time.Now()
	results, err := s.inner.Search(ctx, query, topK, filter)
	s.observe(OpSearch, start, err)
	return results, err
}

func (s *Instrumented) Delete(ctx context.Context, ids []string) error {
	start := time.Now()
	err := s.inner.Delete(ctx, ids)
	s.observe(OpDelete, start, err)
	return err
}

func (s *Instrumented) Collections(ctx context.Context) ([]string, error) {
	start := time.Now()
	names, err := s.inner.Collections(ctx)
	s.observe(OpCollections, start, err)
	return names, err
}

func (s *Instrumented) ListVectors(ctx context.Context) ([]domain.Vector, error) {
	lister, ok := s.inner.(VectorLister)
	if !ok {
		return nil, &Error{Op: OpList, Err: fmt.Errorf("%w: backend %s cannot enumerate vectors", domain.ErrUnsupportedOption, s.backend)}
	}
	start := time.Now()
	vectors, err := lister.ListVectors(ctx)
	s.observe(OpList, start, err)
	return vectors, err
}

func (s *Instrumented) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.observe(OpPing, start, err)
	return err
}

func (s *Instrumented) Close() error {
	return s.inner.Close()
}

func (s *Instrumented) observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.StoreOperationsTotal.WithLabelValues(s.backend, op, status).Inc()
	metrics.StoreOperationDuration.WithLabelValues(s.backend, op).Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn("store operation failed",
			zap.String("backend", s.backend),
			zap.String("op", op),
			zap.Error(err))
	}
}
