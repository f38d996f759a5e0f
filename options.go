package emvex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// ProgressFunc observes batch pipeline progress: done counts texts whose
// window has completed, total is the full input size.
type ProgressFunc func(done, total int)

type clientConfig struct {
	driver   string // "memory", "bolt" or "redis"
	addrs    []string
	password string
	path     string

	providerKind string // "openai", "ollama", "custom" or ""
	providerName string
	apiKey       string
	baseURL      string
	embedder     Embedder

	model      string
	dimensions int

	algorithm       string
	hnswM           int
	hnswEFConstruct int
	filterFields    []string

	docInstruction   string
	queryInstruction string

	batchSize   int
	concurrency int
	progress    ProgressFunc

	dailyTokenLimit   int64
	monthlyTokenLimit int64

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithMemory stores vectors in process memory. This is the default; data
// does not survive the client.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
	})
}

// WithBolt stores vectors in an embedded bbolt file at path.
func WithBolt(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "bolt"
		c.path = path
	})
}

// WithRedis stores vectors in Redis Stack at addr. Search runs server side
// through a vector index, and the same connection backs the embedding cache
// and budget persistence.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithOpenAI configures the OpenAI embeddings API as the provider.
func WithOpenAI(apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.providerKind = "openai"
		c.providerName = "openai"
		c.apiKey = apiKey
	})
}

// WithOpenAICompatible points the OpenAI-compatible provider at another
// endpoint (Nebius, Together, vLLM). The name labels metrics and usage
// reports.
func WithOpenAICompatible(name, baseURL, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.providerKind = "openai"
		c.providerName = name
		c.baseURL = baseURL
		c.apiKey = apiKey
	})
}

// WithOllama configures a local Ollama server as the provider. An empty
// baseURL means http://localhost:11434.
func WithOllama(baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.providerKind = "ollama"
		c.providerName = "ollama"
		c.baseURL = baseURL
	})
}

// WithEmbedder plugs in a custom embedding provider. The name labels
// metrics and usage reports.
func WithEmbedder(name string, e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.providerKind = "custom"
		c.providerName = name
		c.embedder = e
	})
}

// WithModel sets the embedding model used when EmbedOptions does not name
// one. Defaults to the provider's own default.
func WithModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.model = model
	})
}

// WithDimensions pins the vector size for the provider and for collections
// created by this client. Zero lets each collection adopt the size of its
// first insert.
func WithDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithHNSW configures HNSW index build parameters for the redis store.
// Defaults: M=32, EFConstruct=400.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithFlat selects the exact flat vector index instead of HNSW for the
// redis store. Slower on large collections, but search is exhaustive.
func WithFlat() Option {
	return optionFunc(func(c *clientConfig) {
		c.algorithm = "flat"
	})
}

// WithFilterFields lists metadata keys the redis store indexes as TAG
// fields, so filters on them run server side.
func WithFilterFields(fields ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.filterFields = fields
	})
}

// WithInstructions sets the task prefixes prepended to documents and
// queries before embedding. Instruction-tuned models score better with
// them; an empty string disables the prefix for that side.
func WithInstructions(document, query string) Option {
	return optionFunc(func(c *clientConfig) {
		c.docInstruction = document
		c.queryInstruction = query
	})
}

// WithBatchSize sets how many texts go into one provider request.
// Default 96.
func WithBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchSize = size
	})
}

// WithConcurrency sets how many provider requests run in parallel,
// clamped to 4. Default 1.
func WithConcurrency(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.concurrency = n
	})
}

// WithProgress attaches a progress observer to embedding runs.
func WithProgress(fn ProgressFunc) Option {
	return optionFunc(func(c *clientConfig) {
		c.progress = fn
	})
}

// WithBudget caps embedding token consumption per day and per month; a
// zero limit means unlimited for that period. Requests over the cap fail
// with ErrQuotaExceeded. On the redis store counters persist across
// processes sharing the same database.
func WithBudget(dailyTokens, monthlyTokens int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.dailyTokenLimit = dailyTokens
		c.monthlyTokenLimit = monthlyTokens
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
