package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput signals a caller mistake: empty texts, malformed vectors, bad parameters.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProviderAuth signals rejected or missing provider credentials.
	ErrProviderAuth = errors.New("provider authentication failed")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrNetwork signals an unreachable endpoint or a timed out request.
	ErrNetwork = errors.New("network failure")
	// ErrNotConnected signals a store operation issued before Connect.
	ErrNotConnected = errors.New("store not connected")
	// ErrUnsupportedOption signals an embedding option the provider cannot honor.
	ErrUnsupportedOption = errors.New("unsupported option")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)

// ErrQuotaExceeded signals an exhausted embedding budget, either the local
// token budget or the provider's. It matches ErrRateLimited so callers with
// generic backoff handling treat both the same way.
var ErrQuotaExceeded = fmt.Errorf("%w: embedding quota exceeded", ErrRateLimited)

// ErrModelNotFound signals a model unknown to the provider.
// Callers that only care about the class can match ErrInvalidInput.
var ErrModelNotFound = fmt.Errorf("%w: model not found", ErrInvalidInput)

// DimensionMismatchError wraps ErrInvalidInput with the expected and actual vector sizes.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: vector dimension mismatch: want %d, got %d",
		ErrInvalidInput.Error(), e.Want, e.Got)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrInvalidInput }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(want, got int) error {
	return &DimensionMismatchError{Want: want, Got: got}
}

// BatchError reports which batch of a chunked embedding run failed.
// Batch is the zero-based batch index, Offset the input index of its first text.
type BatchError struct {
	Batch  int
	Offset int
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d (texts from %d): %v", e.Batch, e.Offset, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Stage names the pipeline step where a failure happened.
type Stage string

// Pipeline stage constants.
const (
	StageEmbed Stage = "embed"
	StageStore Stage = "store"
)

// PipelineError attributes an indexing or query failure to the embedding
// provider or to the vector store, so callers can tell them apart.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
