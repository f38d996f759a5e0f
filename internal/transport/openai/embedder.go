// Package openai implements the embedding provider contract on top of any
// OpenAI-compatible embeddings API (OpenAI, Nebius, Together, vLLM).
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/emvex/internal/domain"
	"github.com/kailas-cloud/emvex/internal/metrics"
)

// Embedder is an embedding provider using the OpenAI-compatible API.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	user       string
	provider   string
	logger     *zap.Logger
}

var (
	_ domain.Embedder      = (*Embedder)(nil)
	_ domain.HealthChecker = (*Embedder)(nil)
)

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	User       string
	Provider   string
	Logger     *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = domain.DefaultVectorConfig().Model
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(model),
		dimensions: cfg.Dimensions,
		user:       cfg.User,
		provider:   provider,
		logger:     logger,
	}
}

// GenerateEmbeddings implements domain.Embedder. It sends all texts in one
// request and returns their vectors in input order with transport-level
// metrics recorded.
func (e *Embedder) GenerateEmbeddings(
	ctx context.Context, texts []string, opts domain.EmbedOptions,
) (domain.EmbeddingResult, error) {
	model := e.model
	if opts.Model != "" {
		model = openai.EmbeddingModel(opts.Model)
	}
	if len(texts) == 0 {
		return domain.EmbeddingResult{Model: string(model)}, nil
	}
	for i, t := range texts {
		if t == "" {
			return domain.EmbeddingResult{}, fmt.Errorf("%w: text %d is empty", domain.ErrInvalidInput, i)
		}
	}

	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	dimensions := e.dimensions
	if opts.Dimensions > 0 {
		dimensions = opts.Dimensions
	}
	if dimensions > 0 {
		req.Dimensions = dimensions
	}

	e.logger.Debug("embedding request",
		zap.Int("texts", len(texts)),
		zap.String("model", string(model)))

	start := time.Now()

	resp, err := e.client.CreateEmbeddings(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(model), "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(model), "api_error").Inc()
		return domain.EmbeddingResult{}, parseAPIError(err)
	}

	if len(resp.Data) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(model), "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(model), "empty_response").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrNetwork)
	}

	if len(resp.Data) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(model), "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(model), "count_mismatch").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf(
			"embedding count mismatch: sent %d texts, got %d embeddings: %w",
			len(texts), len(resp.Data), domain.ErrNetwork)
	}

	// The API may return items out of order, Index restores input order.
	embeddings := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(embeddings) {
			return domain.EmbeddingResult{}, fmt.Errorf(
				"embedding index %d out of range: %w", d.Index, domain.ErrNetwork)
		}
		embeddings[d.Index] = d.Embedding
	}
	for i, emb := range embeddings {
		if emb == nil {
			return domain.EmbeddingResult{}, fmt.Errorf(
				"missing embedding for text %d: %w", i, domain.ErrNetwork)
		}
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(model), "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, string(model)).Observe(duration.Seconds())

	usage := domain.Usage{
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}
	if usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, string(model), "prompt").Add(float64(usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, string(model), "total").Add(float64(usage.TotalTokens))
	}

	return domain.EmbeddingResult{
		Embeddings: embeddings,
		Model:      string(model),
		Usage:      usage,
	}, nil
}

// ListModels returns the model IDs the provider serves, sorted by name.
func (e *Embedder) ListModels(ctx context.Context) ([]string, error) {
	resp, err := e.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", parseAPIError(err))
	}

	models := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, m.ID)
	}
	sort.Strings(models)
	return models, nil
}

// DefaultModel returns the model used when a request does not name one.
func (e *Embedder) DefaultModel() string {
	return string(e.model)
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", parseAPIError(err))
	}
	return nil
}

// parseAPIError extracts a human-readable message from the API response and
// wraps it with the matching taxonomy sentinel.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return statusError(reqErr.HTTPStatusCode, detail, "")
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ""
		if s, ok := apiErr.Code.(string); ok {
			code = s
		}
		return statusError(apiErr.HTTPStatusCode, apiErr.Message, code)
	}

	// Everything else is a transport failure: DNS, refused connection, timeout.
	return fmt.Errorf("embedding request failed: %w: %w", err, domain.ErrNetwork)
}

// statusError maps an HTTP status onto the error taxonomy.
func statusError(status int, msg, code string) error {
	var kind error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = domain.ErrProviderAuth
	case status == http.StatusTooManyRequests:
		kind = domain.ErrRateLimited
		if code == "insufficient_quota" || strings.Contains(msg, "insufficient_quota") {
			kind = domain.ErrQuotaExceeded
		}
	case status == http.StatusNotFound:
		kind = domain.ErrModelNotFound
	case status >= 400 && status < 500:
		kind = domain.ErrInvalidInput
	default:
		kind = domain.ErrNetwork
	}
	return fmt.Errorf("embedding API error %d: %s: %w", status, msg, kind)
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
