package emvex

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/emvex/internal/domain"
)

// Embedder turns texts into vectors. Implement it to plug a custom provider
// into the client via WithEmbedder.
type Embedder interface {
	// GenerateEmbeddings embeds all texts in one provider call, preserving
	// input order. opts may request a specific model or dimension count.
	GenerateEmbeddings(ctx context.Context, texts []string, opts EmbedOptions) (EmbeddingResult, error)
	// ListModels returns the model identifiers the provider can serve.
	ListModels(ctx context.Context) ([]string, error)
	// DefaultModel returns the model used when none is requested.
	DefaultModel() string
}

// EmbedOptions selects the model and output dimensionality for one request.
// Zero values mean provider defaults.
type EmbedOptions struct {
	Model      string
	Dimensions int
}

// EmbeddingResult is the outcome of an embedding request. Embeddings[i]
// corresponds to the i-th input text.
type EmbeddingResult struct {
	Embeddings   [][]float32
	Model        string
	PromptTokens int
	TotalTokens  int
}

// Embed generates embeddings for texts through the batch pipeline. The
// result keeps input order. A nil opts uses the provider defaults.
func (c *Client) Embed(ctx context.Context, texts []string, opts *EmbedOptions) (res EmbeddingResult, err error) {
	defer c.obs.observe("embed", time.Now(), err)

	r, err := c.embedSvc.Generate(ctx, texts, toInternalOptions(opts))
	if err != nil {
		return EmbeddingResult{}, err
	}
	return fromInternalResult(r), nil
}

// EmbedPartial is Embed with per-batch failure tolerance: failed batches are
// reported in the outcomes and their slots hold nil embeddings. The error is
// non-nil only for invalid input or a cancelled context; per-batch failures
// live in the outcomes.
func (c *Client) EmbedPartial(ctx context.Context, texts []string, opts *EmbedOptions) (res EmbeddingResult, outcomes []BatchOutcome, err error) {
	defer c.obs.observe("embed_partial", time.Now(), err)

	r, ws, err := c.embedSvc.GeneratePartial(ctx, texts, toInternalOptions(opts))
	return fromInternalResult(r), fromInternalWindows(ws), err
}

// Models lists the models the configured provider can serve.
func (c *Client) Models(ctx context.Context) (models []string, err error) {
	defer c.obs.observe("models", time.Now(), err)

	return c.embedder.ListModels(ctx)
}

// DefaultModel returns the provider's default model, or "" when no provider
// is configured.
func (c *Client) DefaultModel() string {
	return c.embedder.DefaultModel()
}

func toInternalOptions(opts *EmbedOptions) domain.EmbedOptions {
	if opts == nil {
		return domain.EmbedOptions{}
	}
	return domain.EmbedOptions(*opts)
}

func fromInternalResult(r domain.EmbeddingResult) EmbeddingResult {
	return EmbeddingResult{
		Embeddings:   r.Embeddings,
		Model:        r.Model,
		PromptTokens: r.Usage.PromptTokens,
		TotalTokens:  r.Usage.TotalTokens,
	}
}

// embedderAdapter bridges a public Embedder into the internal chain.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) GenerateEmbeddings(ctx context.Context, texts []string, opts domain.EmbedOptions) (domain.EmbeddingResult, error) {
	r, err := a.inner.GenerateEmbeddings(ctx, texts, EmbedOptions(opts))
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embeddings: r.Embeddings,
		Model:      r.Model,
		Usage: domain.Usage{
			PromptTokens: r.PromptTokens,
			TotalTokens:  r.TotalTokens,
		},
	}, nil
}

func (a *embedderAdapter) ListModels(ctx context.Context) ([]string, error) {
	return a.inner.ListModels(ctx)
}

func (a *embedderAdapter) DefaultModel() string {
	return a.inner.DefaultModel()
}

// noopEmbedder stands in when no provider option was given.
type noopEmbedder struct{}

func errNoProvider() error {
	return fmt.Errorf("%w: no embedding provider configured (use WithOpenAI, WithOllama or WithEmbedder)", domain.ErrInvalidInput)
}

func (noopEmbedder) GenerateEmbeddings(context.Context, []string, domain.EmbedOptions) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errNoProvider()
}

func (noopEmbedder) ListModels(context.Context) ([]string, error) {
	return nil, errNoProvider()
}

func (noopEmbedder) DefaultModel() string { return "" }
