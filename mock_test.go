package emvex

import (
	"context"

	"github.com/kailas-cloud/emvex/internal/domain"
	dombatch "github.com/kailas-cloud/emvex/internal/domain/batch"
	domcluster "github.com/kailas-cloud/emvex/internal/domain/cluster"
	domusage "github.com/kailas-cloud/emvex/internal/domain/usage"
	clusteruc "github.com/kailas-cloud/emvex/internal/usecase/cluster"
	healthuc "github.com/kailas-cloud/emvex/internal/usecase/health"
)

// --- embedUseCase mock ---

type mockEmbedUC struct {
	generateFn func(ctx context.Context, texts []string, opts domain.EmbedOptions) (domain.EmbeddingResult, error)
	partialFn  func(ctx context.Context, texts []string, opts domain.EmbedOptions) (domain.EmbeddingResult, []dombatch.Window, error)
}

func (m *mockEmbedUC) Generate(
	ctx context.Context, texts []string, opts domain.EmbedOptions,
) (domain.EmbeddingResult, error) {
	return m.generateFn(ctx, texts, opts)
}

func (m *mockEmbedUC) GeneratePartial(
	ctx context.Context, texts []string, opts domain.EmbedOptions,
) (domain.EmbeddingResult, []dombatch.Window, error) {
	return m.partialFn(ctx, texts, opts)
}

// --- retrievalUseCase mock ---

type mockRetrievalUC struct {
	indexFn func(ctx context.Context, collection string, docs []domain.Document) ([]string, error)
	queryFn func(ctx context.Context, collection, text string, topK int, filter domain.Filter) ([]domain.SearchResult, error)
}

func (m *mockRetrievalUC) Index(
	ctx context.Context, collection string, docs []domain.Document,
) ([]string, error) {
	return m.indexFn(ctx, collection, docs)
}

func (m *mockRetrievalUC) Query(
	ctx context.Context, collection, text string, topK int, filter domain.Filter,
) ([]domain.SearchResult, error) {
	return m.queryFn(ctx, collection, text, topK, filter)
}

// --- clusterUseCase mock ---

type mockClusterUC struct {
	groupFn func(ctx context.Context, collection string, k int, opts domcluster.Options) (clusteruc.Grouped, error)
}

func (m *mockClusterUC) Group(
	ctx context.Context, collection string, k int, opts domcluster.Options,
) (clusteruc.Grouped, error) {
	return m.groupFn(ctx, collection, k, opts)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	checkFn func(ctx context.Context) healthuc.Report
}

func (m *mockHealthUC) Check(ctx context.Context) healthuc.Report {
	return m.checkFn(ctx)
}

// --- usageUseCase mock ---

type mockUsageUC struct {
	reportFn func(ctx context.Context, period domusage.Period) domusage.Report
}

func (m *mockUsageUC) GetReport(ctx context.Context, period domusage.Period) domusage.Report {
	return m.reportFn(ctx, period)
}

// --- store mock ---

type mockStore struct {
	connectFn     func(ctx context.Context, collection string) error
	insertFn      func(ctx context.Context, vectors []domain.Vector) error
	searchFn      func(ctx context.Context, query []float32, topK int, filter domain.Filter) ([]domain.SearchResult, error)
	deleteFn      func(ctx context.Context, ids []string) error
	collectionsFn func(ctx context.Context) ([]string, error)
	pingFn        func(ctx context.Context) error

	closed bool
}

func (m *mockStore) Connect(ctx context.Context, collection string) error {
	return m.connectFn(ctx, collection)
}

func (m *mockStore) Insert(ctx context.Context, vectors []domain.Vector) error {
	return m.insertFn(ctx, vectors)
}

func (m *mockStore) Search(
	ctx context.Context, query []float32, topK int, filter domain.Filter,
) ([]domain.SearchResult, error) {
	return m.searchFn(ctx, query, topK, filter)
}

func (m *mockStore) Delete(ctx context.Context, ids []string) error {
	return m.deleteFn(ctx, ids)
}

func (m *mockStore) Collections(ctx context.Context) ([]string, error) {
	return m.collectionsFn(ctx)
}

func (m *mockStore) Ping(ctx context.Context) error {
	if m.pingFn == nil {
		return nil
	}
	return m.pingFn(ctx)
}

func (m *mockStore) Close() error {
	m.closed = true
	return nil
}
