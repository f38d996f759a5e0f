package emvex

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/emvex/internal/domain"
	dombatch "github.com/kailas-cloud/emvex/internal/domain/batch"
	domcluster "github.com/kailas-cloud/emvex/internal/domain/cluster"
	domusage "github.com/kailas-cloud/emvex/internal/domain/usage"
	"github.com/kailas-cloud/emvex/internal/metrics"
	budgetrepo "github.com/kailas-cloud/emvex/internal/repository/budget"
	"github.com/kailas-cloud/emvex/internal/repository/embcache"
	"github.com/kailas-cloud/emvex/internal/store"
	storebolt "github.com/kailas-cloud/emvex/internal/store/bolt"
	storememory "github.com/kailas-cloud/emvex/internal/store/memory"
	storeredis "github.com/kailas-cloud/emvex/internal/store/redis"
	"github.com/kailas-cloud/emvex/internal/transport/ollama"
	"github.com/kailas-cloud/emvex/internal/transport/openai"
	clusteruc "github.com/kailas-cloud/emvex/internal/usecase/cluster"
	embeddinguc "github.com/kailas-cloud/emvex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/emvex/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/emvex/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/emvex/internal/usecase/usage"
)

const defaultReadinessTimeout = 10 * time.Second

// Внутренние интерфейсы для подмены в тестах.
type embedUseCase interface {
	Generate(ctx context.Context, texts []string, opts domain.EmbedOptions) (domain.EmbeddingResult, error)
	GeneratePartial(ctx context.Context, texts []string, opts domain.EmbedOptions) (domain.EmbeddingResult, []dombatch.Window, error)
}

type retrievalUseCase interface {
	Index(ctx context.Context, collection string, docs []domain.Document) ([]string, error)
	Query(ctx context.Context, collection, text string, topK int, filter domain.Filter) ([]domain.SearchResult, error)
}

type clusterUseCase interface {
	Group(ctx context.Context, collection string, k int, opts domcluster.Options) (clusteruc.Grouped, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

type usageUseCase interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// kvConn is the key-value surface the embedding cache and the budget store
// need from a backend. Only the redis store provides it.
type kvConn interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Client is the emvex entry point. It owns one vector store connection and
// one embedding provider chain; all methods are safe for concurrent use.
type Client struct {
	store    store.Provider
	embedder domain.Embedder

	embedSvc     embedUseCase
	retrievalSvc retrievalUseCase
	clusterSvc   clusterUseCase
	healthSvc    healthUseCase
	usageSvc     usageUseCase

	obs *observer
}

// New creates a Client from the given options and verifies store readiness.
// Without a store option vectors live in process memory; without a provider
// option raw vector operations work and embedding operations fail.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{driver: "memory"}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	backend, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := waitForReady(ctx, backend, defaultReadinessTimeout); err != nil {
		backend.Close()
		return nil, fmt.Errorf("emvex: store not ready: %w", err)
	}

	return wireClient(ctx, backend, cfg, obs)
}

// Close releases the store connection.
func (c *Client) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

func createStore(cfg *clientConfig) (store.Provider, error) {
	switch cfg.driver {
	case "memory":
		return storememory.NewStore(storememory.Config{
			Dimensions: cfg.dimensions,
		}), nil
	case "bolt":
		s, err := storebolt.NewStore(storebolt.Config{
			Path:       cfg.path,
			Dimensions: cfg.dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("emvex: create bolt store: %w", err)
		}
		return s, nil
	case "redis":
		s, err := storeredis.NewStore(storeredis.Config{
			Addrs:           cfg.addrs,
			Password:        cfg.password,
			Dimensions:      cfg.dimensions,
			Algorithm:       cfg.algorithm,
			HNSWM:           cfg.hnswM,
			HNSWEFConstruct: cfg.hnswEFConstruct,
			FilterFields:    cfg.filterFields,
		})
		if err != nil {
			return nil, fmt.Errorf("emvex: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("emvex: unknown driver %q", cfg.driver)
	}
}

// waitForReady polls Ping until the store responds or the timeout passes.
// Local backends answer the first ping, only remote ones ever wait.
func waitForReady(ctx context.Context, s store.Provider, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := s.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func createEmbedder(cfg *clientConfig) (domain.Embedder, error) {
	switch cfg.providerKind {
	case "openai":
		return openai.NewEmbedder(&openai.Config{
			APIKey:     cfg.apiKey,
			BaseURL:    cfg.baseURL,
			Model:      cfg.model,
			Dimensions: cfg.dimensions,
			Provider:   cfg.providerName,
		}), nil
	case "ollama":
		e, err := ollama.NewEmbedder(&ollama.Config{
			BaseURL: cfg.baseURL,
			Model:   cfg.model,
		})
		if err != nil {
			return nil, fmt.Errorf("emvex: create ollama provider: %w", err)
		}
		return e, nil
	case "custom":
		return &embedderAdapter{inner: cfg.embedder}, nil
	case "":
		// Без провайдера: raw vector operations работают, embedding вернёт ошибку.
		return noopEmbedder{}, nil
	default:
		return nil, fmt.Errorf("emvex: unknown provider kind %q", cfg.providerKind)
	}
}

func wireClient(ctx context.Context, backend store.Provider, cfg *clientConfig, obs *observer) (*Client, error) {
	base, err := createEmbedder(cfg)
	if err != nil {
		backend.Close()
		return nil, err
	}
	providerName := cfg.providerName
	if providerName == "" {
		providerName = "none"
	}

	var tracker *embeddinguc.BudgetTracker
	if cfg.dailyTokenLimit > 0 || cfg.monthlyTokenLimit > 0 {
		tracker = embeddinguc.NewBudgetTracker(
			providerName, cfg.dailyTokenLimit, cfg.monthlyTokenLimit,
			embeddinguc.BudgetActionReject, nil)
		if kv, ok := backend.(kvConn); ok {
			tracker = tracker.WithStore(ctx, budgetrepo.New(kv, 0, 0))
		}
	}

	// Типизированный nil в интерфейсе включил бы проверку бюджета без трекера.
	var checker embeddinguc.BudgetChecker
	var reader usageuc.BudgetReader
	if tracker != nil {
		checker = tracker
		reader = tracker
	}

	var chain domain.Embedder = base
	if kv, ok := backend.(kvConn); ok {
		chain = embcache.New(chain, kv, metrics.EmbeddingCacheTotal, nil)
	}
	chain = embeddinguc.NewInstrumentedEmbedder(chain, providerName, checker, nil)

	// The instruction wraps the whole chain, so the cache keys include the
	// prefix and documents never collide with queries.
	docsEmb := chain
	queriesEmb := chain
	if cfg.docInstruction != "" {
		docsEmb = domain.NewInstructionEmbedder(chain, cfg.docInstruction)
	}
	if cfg.queryInstruction != "" {
		queriesEmb = domain.NewInstructionEmbedder(chain, cfg.queryInstruction)
	}

	instrumented := store.NewInstrumented(backend, cfg.driver, nil)

	var hc healthuc.EmbeddingChecker
	if h, ok := base.(domain.HealthChecker); ok {
		hc = h
	}

	return &Client{
		store:    instrumented,
		embedder: chain,
		embedSvc: newPipeline(chain, cfg),
		retrievalSvc: retrievaluc.New(
			newPipeline(docsEmb, cfg),
			newPipeline(queriesEmb, cfg),
			instrumented,
		),
		clusterSvc: clusteruc.New(instrumented),
		healthSvc:  healthuc.New(instrumented, hc),
		usageSvc:   usageuc.New(reader),
		obs:        obs,
	}, nil
}

// newPipeline builds one batch pipeline over the given embedder chain.
func newPipeline(e domain.Embedder, cfg *clientConfig) *embeddinguc.Service {
	p := embeddinguc.NewService(e, nil)
	if cfg.batchSize > 0 {
		p = p.WithBatchSize(cfg.batchSize)
	}
	if cfg.concurrency > 0 {
		p = p.WithConcurrency(cfg.concurrency)
	}
	if cfg.progress != nil {
		p = p.WithProgress(embeddinguc.ProgressFunc(cfg.progress))
	}
	return p
}
