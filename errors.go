package emvex

import "github.com/kailas-cloud/emvex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput      = domain.ErrInvalidInput
	ErrProviderAuth      = domain.ErrProviderAuth
	ErrRateLimited       = domain.ErrRateLimited
	ErrNetwork           = domain.ErrNetwork
	ErrNotConnected      = domain.ErrNotConnected
	ErrUnsupportedOption = domain.ErrUnsupportedOption
	ErrNotFound          = domain.ErrNotFound

	// ErrQuotaExceeded signals an exhausted token budget, the local one set
	// with WithBudget or the provider's. Matches ErrRateLimited.
	ErrQuotaExceeded = domain.ErrQuotaExceeded
	// ErrModelNotFound signals a model unknown to the provider.
	// Matches ErrInvalidInput.
	ErrModelNotFound = domain.ErrModelNotFound
)

// Error types re-exported as aliases so errors.As works without importing
// internal packages.
type (
	// PipelineError attributes an Index or Query failure to the embedding
	// provider (StageEmbed) or to the vector store (StageStore).
	PipelineError = domain.PipelineError
	// BatchError reports which window of a chunked embedding run failed.
	BatchError = domain.BatchError
	// DimensionMismatchError carries the expected and actual vector sizes.
	DimensionMismatchError = domain.DimensionMismatchError
	// Stage names the pipeline step where a failure happened.
	Stage = domain.Stage
)

// Pipeline stage constants.
const (
	StageEmbed = domain.StageEmbed
	StageStore = domain.StageStore
)
