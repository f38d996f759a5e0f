// Package ollama implements the embedding provider contract against a local
// Ollama server. Texts never leave the host and no API key is involved.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/emvex/internal/domain"
	"github.com/kailas-cloud/emvex/internal/metrics"
)

// DefaultBaseURL is the endpoint of a local Ollama install.
const DefaultBaseURL = "http://localhost:11434"

// DefaultTimeout bounds a single embedding request. Cold model loads can
// take tens of seconds.
const DefaultTimeout = 60 * time.Second

// DefaultModel is used when the configuration does not name a model.
const DefaultModel = "nomic-embed-text"

const providerName = "ollama"

// Config holds the Ollama provider settings.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Embedder is an embedding provider backed by a local Ollama server.
type Embedder struct {
	client  *http.Client
	baseURL *url.URL
	model   string
	logger  *zap.Logger
}

var (
	_ domain.Embedder      = (*Embedder)(nil)
	_ domain.HealthChecker = (*Embedder)(nil)
)

// NewEmbedder creates an Ollama embedding provider.
func NewEmbedder(cfg *Config) (*Embedder, error) {
	rawURL := cfg.BaseURL
	if rawURL == "" {
		rawURL = DefaultBaseURL
	}
	baseURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: base URL %q: %v", domain.ErrInvalidInput, rawURL, err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		model:   model,
		logger:  logger,
	}, nil
}

// GenerateEmbeddings implements domain.Embedder via the /api/embed endpoint.
// Ollama returns embeddings in input order.
func (e *Embedder) GenerateEmbeddings(
	ctx context.Context, texts []string, opts domain.EmbedOptions,
) (domain.EmbeddingResult, error) {
	if opts.Dimensions > 0 {
		return domain.EmbeddingResult{}, fmt.Errorf(
			"%w: ollama cannot truncate embedding dimensions", domain.ErrUnsupportedOption)
	}

	model := e.model
	if opts.Model != "" {
		model = opts.Model
	}
	if len(texts) == 0 {
		return domain.EmbeddingResult{Model: model}, nil
	}
	for i, t := range texts {
		if t == "" {
			return domain.EmbeddingResult{}, fmt.Errorf("%w: text %d is empty", domain.ErrInvalidInput, i)
		}
	}

	body, err := json.Marshal(embedRequest{Model: model, Input: texts})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := e.baseURL.JoinPath("/api/embed")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	e.logger.Debug("embedding request",
		zap.Int("texts", len(texts)),
		zap.String("model", model))

	start := time.Now()

	resp, err := e.client.Do(req)

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, model, "api_error").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("embedding request failed: %w: %w", err, domain.ErrNetwork)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, model, "api_error").Inc()
		return domain.EmbeddingResult{}, statusError(resp)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, model, "decode_error").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("decode response: %w: %w", err, domain.ErrNetwork)
	}

	if len(parsed.Embeddings) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, model, "count_mismatch").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf(
			"embedding count mismatch: sent %d texts, got %d embeddings: %w",
			len(texts), len(parsed.Embeddings), domain.ErrNetwork)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerName, model).Observe(duration.Seconds())

	usage := domain.Usage{
		PromptTokens: parsed.PromptEvalCount,
		TotalTokens:  parsed.PromptEvalCount,
	}
	if usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(providerName, model, "prompt").Add(float64(usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(providerName, model, "total").Add(float64(usage.TotalTokens))
	}

	return domain.EmbeddingResult{
		Embeddings: parsed.Embeddings,
		Model:      model,
		Usage:      usage,
	}, nil
}

// ListModels returns the locally pulled model names, sorted.
func (e *Embedder) ListModels(ctx context.Context) ([]string, error) {
	endpoint := e.baseURL.JoinPath("/api/tags")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list models: %w: %w", err, domain.ErrNetwork)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list models: %w", statusError(resp))
	}

	var parsed tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode tags response: %w: %w", err, domain.ErrNetwork)
	}

	models := make([]string, 0, len(parsed.Models))
	for _, m := range parsed.Models {
		models = append(models, m.Name)
	}
	sort.Strings(models)
	return models, nil
}

// DefaultModel returns the model used when a request does not name one.
func (e *Embedder) DefaultModel() string {
	return e.model
}

// HealthCheck verifies the server is reachable via /api/tags.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	endpoint := e.baseURL.JoinPath("/api/tags")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable: %w: %w", err, domain.ErrNetwork)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama health check failed with status %d: %w", resp.StatusCode, domain.ErrNetwork)
	}
	return nil
}

// statusError maps a failed HTTP response onto the error taxonomy. Ollama
// reports problems as {"error": "..."} with a 4xx or 5xx status.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	msg := strings.TrimSpace(string(body))
	var parsed errorResponse
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != "" {
		msg = parsed.Error
	}

	var kind error
	switch {
	case resp.StatusCode == http.StatusNotFound || strings.Contains(msg, "not found"):
		kind = domain.ErrModelNotFound
	case resp.StatusCode == http.StatusBadRequest:
		kind = domain.ErrInvalidInput
	default:
		kind = domain.ErrNetwork
	}
	return fmt.Errorf("ollama API error %d: %s: %w", resp.StatusCode, msg, kind)
}
