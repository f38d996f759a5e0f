package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/emvex/internal/config"
	"github.com/kailas-cloud/emvex/internal/domain"
	"github.com/kailas-cloud/emvex/internal/metrics"
	budgetrepo "github.com/kailas-cloud/emvex/internal/repository/budget"
	"github.com/kailas-cloud/emvex/internal/repository/embcache"
	"github.com/kailas-cloud/emvex/internal/store"
	storebolt "github.com/kailas-cloud/emvex/internal/store/bolt"
	storememory "github.com/kailas-cloud/emvex/internal/store/memory"
	storeredis "github.com/kailas-cloud/emvex/internal/store/redis"
	"github.com/kailas-cloud/emvex/internal/transport/ollama"
	"github.com/kailas-cloud/emvex/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/emvex/internal/usecase/embedding"
	retrievaluc "github.com/kailas-cloud/emvex/internal/usecase/retrieval"
)

// kvStore is the key-value surface the embedding cache and the budget
// persistence need. Of the bundled backends only redis provides it.
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// engine holds the wired components a command works with. docs and queries
// are nil when no embedding provider is configured; raw vector and health
// commands still work in that state.
type engine struct {
	cfg config.Config
	log *zap.Logger

	store     *store.Instrumented
	provider  string
	docs      domain.Embedder
	queries   domain.Embedder
	embHealth domain.HealthChecker
	budget    *embeddinguc.BudgetTracker
}

// buildEngine assembles the store, the embedder chains and the budget
// tracker from the configuration.
func buildEngine(ctx context.Context, cfg config.Config, log *zap.Logger) (*engine, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterStoreMetrics()

	backend, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	e := &engine{
		cfg:   cfg,
		log:   log,
		store: store.NewInstrumented(backend, cfg.Store.Driver, log),
	}

	name, vec, ok := pickVectorizer(cfg.Embedding.Vectorizers)
	if !ok {
		log.Debug("No vectorizer configured, embedding commands disabled")
		return e, nil
	}

	prov := cfg.Embedding.Providers[vec.Provider]

	base, err := createProvider(vec.Provider, prov, vec, log)
	if err != nil {
		backend.Close()
		return nil, err
	}

	if prov.Budget.DailyTokenLimit > 0 || prov.Budget.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if prov.Budget.Action == "reject" {
			action = embeddinguc.BudgetActionReject
		}
		e.budget = embeddinguc.NewBudgetTracker(
			vec.Provider, prov.Budget.DailyTokenLimit, prov.Budget.MonthlyTokenLimit, action, log,
		)
		if kv, kvOK := backend.(kvStore); kvOK {
			e.budget = e.budget.WithStore(ctx, budgetrepo.New(kv, 48*time.Hour, 62*24*time.Hour))
		}
	}

	// Типизированный nil в интерфейсе включил бы проверку бюджета без трекера.
	var checker embeddinguc.BudgetChecker
	if e.budget != nil {
		checker = e.budget
	}

	chain := base
	if kv, kvOK := backend.(kvStore); kvOK {
		chain = embcache.New(chain, kv, metrics.EmbeddingCacheTotal, log)
	}
	chain = embeddinguc.NewInstrumentedEmbedder(chain, vec.Provider, checker, log)

	// The instruction goes outside the cache, so cached document vectors
	// never answer query lookups.
	e.docs, e.queries = chain, chain
	if vec.DocumentInstruction != "" {
		e.docs = domain.NewInstructionEmbedder(chain, vec.DocumentInstruction)
	}
	if vec.QueryInstruction != "" {
		e.queries = domain.NewInstructionEmbedder(chain, vec.QueryInstruction)
	}

	if hc, hcOK := base.(domain.HealthChecker); hcOK {
		e.embHealth = hc
	}
	e.provider = vec.Provider

	log.Info("Embedder ready",
		zap.String("vectorizer", name),
		zap.String("provider", vec.Provider),
		zap.String("model", vec.Model),
		zap.Int("dimensions", vec.Dimensions),
	)

	return e, nil
}

// Close releases the store connection.
func (e *engine) Close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn("Store close failed", zap.Error(err))
	}
}

// requireProvider rejects embedding commands when no provider is configured.
func (e *engine) requireProvider() error {
	if e.docs == nil {
		return fmt.Errorf("no embedding provider configured: add embedding.providers and embedding.vectorizers to the config file")
	}
	return nil
}

// pipeline builds the batch pipeline over the given embedder chain.
func (e *engine) pipeline(emb domain.Embedder, progress embeddinguc.ProgressFunc) *embeddinguc.Service {
	svc := embeddinguc.NewService(emb, e.log).
		WithBatchSize(e.cfg.Pipeline.BatchSize).
		WithConcurrency(e.cfg.Pipeline.Concurrency)
	if progress != nil {
		svc = svc.WithProgress(progress)
	}
	return svc
}

// retrieval builds the index/query service. The progress callback reports
// document embedding; queries embed a single text and skip it.
func (e *engine) retrieval(progress embeddinguc.ProgressFunc) *retrievaluc.Service {
	return retrievaluc.New(e.pipeline(e.docs, progress), e.pipeline(e.queries, nil), e.store)
}

// openStore creates the configured backend. The redis backend is polled
// until its search index answers or the readiness timeout expires.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Provider, error) {
	dims := vectorizerDimensions(cfg)

	switch cfg.Store.Driver {
	case "memory":
		return storememory.NewStore(storememory.Config{Dimensions: dims}), nil
	case "bolt":
		s, err := storebolt.NewStore(storebolt.Config{Path: cfg.Store.Path, Dimensions: dims})
		if err != nil {
			return nil, fmt.Errorf("create bolt store: %w", err)
		}
		return s, nil
	case "redis":
		s, err := storeredis.NewStore(storeredis.Config{
			Addrs:           cfg.Store.Addrs,
			Username:        cfg.Store.Username,
			Password:        cfg.Store.Password,
			DB:              cfg.Store.DB,
			Dimensions:      dims,
			Algorithm:       cfg.Index.Algorithm,
			HNSWM:           cfg.Index.HNSWM,
			HNSWEFConstruct: cfg.Index.HNSWEFConstruct,
			FilterFields:    cfg.Store.FilterFields,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		timeout := time.Duration(cfg.Store.ReadinessTimeout) * time.Second
		if err := s.WaitForReady(ctx, timeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("redis not ready after %s: %w", timeout, err)
		}
		log.Info("Connected to redis", zap.Strings("addrs", cfg.Store.Addrs))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// pickVectorizer selects the active vectorizer. Names are sorted so the
// choice does not depend on map iteration order.
func pickVectorizer(vs map[string]config.VectorizerConfig) (string, config.VectorizerConfig, bool) {
	names := make([]string, 0, len(vs))
	for name := range vs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if v := vs[name]; v.Provider != "" {
			return name, v, true
		}
	}
	return "", config.VectorizerConfig{}, false
}

// createProvider builds the transport for the named provider. "ollama"
// selects the native Ollama API, every other name is treated as an
// OpenAI-compatible endpoint.
func createProvider(
	name string, prov config.ProviderConfig, vec config.VectorizerConfig, log *zap.Logger,
) (domain.Embedder, error) {
	if name == "ollama" {
		emb, err := ollama.NewEmbedder(&ollama.Config{
			BaseURL: prov.BaseURL,
			Model:   vec.Model,
			Logger:  log,
		})
		if err != nil {
			return nil, fmt.Errorf("create ollama provider: %w", err)
		}
		return emb, nil
	}

	return openai.NewEmbedder(&openai.Config{
		APIKey:     prov.APIKey,
		BaseURL:    prov.BaseURL,
		Model:      vec.Model,
		Dimensions: vec.Dimensions,
		Provider:   name,
		Logger:     log,
	}), nil
}

// vectorizerDimensions returns the configured vector size, zero when no
// vectorizer is set.
func vectorizerDimensions(cfg config.Config) int {
	if _, vec, ok := pickVectorizer(cfg.Embedding.Vectorizers); ok {
		return vec.Dimensions
	}
	return 0
}
