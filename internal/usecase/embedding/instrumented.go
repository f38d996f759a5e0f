package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/emvex/internal/domain"
	"github.com/kailas-cloud/emvex/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// InstrumentedEmbedder wraps a provider with budget enforcement and logging.
// Transport metrics (requests, duration, tokens) are recorded in the
// transport packages. This layer owns budget tracking, the dispatched batch
// counter, and budget-related metrics only.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	budget   BudgetChecker
	logger   *zap.Logger
}

var _ domain.Embedder = (*InstrumentedEmbedder)(nil)

// NewInstrumentedEmbedder wraps an embedder with budget and observability.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		budget:   budget,
		logger:   logger,
	}
}

// GenerateEmbeddings checks the budget, delegates to the inner embedder,
// and records token usage.
func (p *InstrumentedEmbedder) GenerateEmbeddings(
	ctx context.Context, texts []string, opts domain.EmbedOptions,
) (domain.EmbeddingResult, error) {
	if len(texts) == 0 {
		return p.inner.GenerateEmbeddings(ctx, texts, opts)
	}

	model := opts.Model
	if model == "" {
		model = p.inner.DefaultModel()
	}

	if p.budget != nil {
		if err := p.budget.Check(ctx); err != nil {
			p.logger.Error("Budget exceeded",
				zap.String("provider", p.provider),
				zap.String("model", model),
				zap.Int("batch_size", len(texts)),
				zap.Error(err),
			)
			return domain.EmbeddingResult{}, fmt.Errorf("budget check: %w", err)
		}
	}

	metrics.EmbeddingBatchesTotal.WithLabelValues(p.provider, model).Inc()

	start := time.Now()

	result, err := p.inner.GenerateEmbeddings(ctx, texts, opts)

	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", model),
			zap.Int("batch_size", len(texts)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	// Record token usage in budget
	if p.budget != nil && result.Usage.TotalTokens > 0 {
		p.budget.Record(int64(result.Usage.TotalTokens))
		remaining := metrics.EmbeddingBudgetTokensRemaining
		remaining.WithLabelValues(p.provider, "daily").Set(float64(p.budget.RemainingDaily()))
		remaining.WithLabelValues(p.provider, "monthly").Set(float64(p.budget.RemainingMonthly()))
	}

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", result.Model),
		zap.Duration("duration", duration),
		zap.Int("batch_size", len(texts)),
		zap.Int("prompt_tokens", result.Usage.PromptTokens),
		zap.Int("total_tokens", result.Usage.TotalTokens),
	)

	return result, nil
}

// ListModels delegates to the inner embedder.
func (p *InstrumentedEmbedder) ListModels(ctx context.Context) ([]string, error) {
	return p.inner.ListModels(ctx)
}

// DefaultModel delegates to the inner embedder.
func (p *InstrumentedEmbedder) DefaultModel() string {
	return p.inner.DefaultModel()
}

// HealthCheck delegates when the inner embedder supports it.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
