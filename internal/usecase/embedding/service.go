// Package embedding implements the chunked embedding pipeline: long inputs
// are cut into contiguous windows, embedded with bounded concurrency, and
// reassembled in input order. The package also carries the budget tracker
// and the instrumenting decorator the pipeline is composed with.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/emvex/internal/domain"
	"github.com/kailas-cloud/emvex/internal/domain/batch"
)

// DefaultBatchSize is the number of texts sent per provider request.
const DefaultBatchSize = 96

// MaxConcurrency caps the number of provider requests in flight.
const MaxConcurrency = 4

// Service chunks large embedding requests into windows and runs them
// through the provider, preserving input order in the output.
type Service struct {
	embedder    Embedder
	batchSize   int
	concurrency int
	progress    ProgressFunc
	logger      *zap.Logger
}

// NewService creates an embedding pipeline over the given provider.
func NewService(embedder Embedder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		embedder:    embedder,
		batchSize:   DefaultBatchSize,
		concurrency: 1,
		logger:      logger,
	}
}

// WithBatchSize configures the window size.
func (s *Service) WithBatchSize(size int) *Service {
	if size > 0 {
		s.batchSize = size
	}
	return s
}

// WithConcurrency configures how many windows run in parallel,
// clamped to MaxConcurrency.
func (s *Service) WithConcurrency(n int) *Service {
	if n > 0 {
		if n > MaxConcurrency {
			n = MaxConcurrency
		}
		s.concurrency = n
	}
	return s
}

// WithProgress attaches a progress observer.
func (s *Service) WithProgress(fn ProgressFunc) *Service {
	s.progress = fn
	return s
}

// Generate embeds all texts and returns their vectors in input order.
// The run is all-or-nothing: the first window failure cancels outstanding
// work and is returned as a BatchError.
func (s *Service) Generate(
	ctx context.Context, texts []string, opts domain.EmbedOptions,
) (domain.EmbeddingResult, error) {
	result, _, err := s.run(ctx, texts, opts, true)
	return result, err
}

// GeneratePartial embeds all texts but keeps going past window failures.
// Vectors of failed windows stay nil in the result, and every window is
// reported in the returned outcomes. The error is non-nil only for invalid
// input or a cancelled context.
func (s *Service) GeneratePartial(
	ctx context.Context, texts []string, opts domain.EmbedOptions,
) (domain.EmbeddingResult, []batch.Window, error) {
	return s.run(ctx, texts, opts, false)
}

// window is one contiguous slice of the input.
type window struct {
	batch  int
	offset int
	texts  []string
}

func (s *Service) run(
	ctx context.Context, texts []string, opts domain.EmbedOptions, failFast bool,
) (domain.EmbeddingResult, []batch.Window, error) {
	for i, t := range texts {
		if t == "" {
			return domain.EmbeddingResult{}, nil, fmt.Errorf("%w: text %d is empty", domain.ErrInvalidInput, i)
		}
	}
	if len(texts) == 0 {
		// The provider resolves the model name without a network call.
		result, err := s.embedder.GenerateEmbeddings(ctx, nil, opts)
		return result, nil, err
	}

	ws := s.windows(texts)
	s.logger.Debug("embedding pipeline run",
		zap.Int("texts", len(texts)),
		zap.Int("windows", len(ws)),
		zap.Int("batch_size", s.batchSize),
		zap.Int("concurrency", s.concurrency))

	st := &runState{
		results:  make([][]float32, len(texts)),
		outcomes: make([]batch.Window, len(ws)),
		progress: s.progress,
		total:    len(texts),
	}

	var err error
	if s.concurrency <= 1 || len(ws) == 1 {
		err = s.runSequential(ctx, ws, opts, failFast, st)
	} else {
		err = s.runPool(ctx, ws, opts, failFast, st)
	}

	if failFast && err != nil {
		return domain.EmbeddingResult{}, nil, err
	}
	result := domain.EmbeddingResult{
		Embeddings: st.results,
		Model:      st.model,
		Usage:      st.usage,
	}
	return result, st.outcomes, err
}

// windows cuts the input into contiguous batchSize slices.
func (s *Service) windows(texts []string) []window {
	ws := make([]window, 0, (len(texts)+s.batchSize-1)/s.batchSize)
	for offset := 0; offset < len(texts); offset += s.batchSize {
		end := offset + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		ws = append(ws, window{batch: len(ws), offset: offset, texts: texts[offset:end]})
	}
	return ws
}

// runState accumulates the output of one pipeline run. The results slots
// are disjoint per window; everything else is guarded by mu.
type runState struct {
	results  [][]float32
	outcomes []batch.Window

	mu       sync.Mutex
	usage    domain.Usage
	model    string
	done     int
	progress ProgressFunc
	total    int
}

// complete records a finished window attempt and reports progress.
// Calls are serialized, so the observer sees a strictly increasing done count.
func (st *runState) complete(w window, res domain.EmbeddingResult, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if err != nil {
		st.outcomes[w.batch] = batch.NewError(w.batch, w.offset, len(w.texts), err)
	} else {
		st.outcomes[w.batch] = batch.NewOK(w.batch, w.offset, len(w.texts))
		st.usage.Add(res.Usage)
		st.model = res.Model
	}

	st.done += len(w.texts)
	if st.progress != nil {
		st.progress(st.done, st.total)
	}
}

func (s *Service) runSequential(
	ctx context.Context, ws []window, opts domain.EmbedOptions, failFast bool, st *runState,
) error {
	for i, w := range ws {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if failFast {
				return ctxErr
			}
			for j := i; j < len(ws); j++ {
				st.outcomes[j] = batch.NewError(ws[j].batch, ws[j].offset, len(ws[j].texts), ctxErr)
			}
			return ctxErr
		}

		res, err := s.embedder.GenerateEmbeddings(ctx, w.texts, opts)
		if err != nil {
			if failFast {
				return &domain.BatchError{Batch: w.batch, Offset: w.offset, Err: err}
			}
			s.logger.Warn("embedding window failed",
				zap.Int("batch", w.batch),
				zap.Int("offset", w.offset),
				zap.Error(err))
			st.complete(w, domain.EmbeddingResult{}, err)
			continue
		}

		copy(st.results[w.offset:], res.Embeddings)
		st.complete(w, res, nil)
	}
	return nil
}

// runPool fans windows out to concurrency workers. Workers write vectors
// into disjoint regions of the shared results slice, so output order never
// depends on scheduling.
func (s *Service) runPool(
	ctx context.Context, ws []window, opts domain.EmbedOptions, failFast bool, st *runState,
) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := s.concurrency
	if workers > len(ws) {
		workers = len(ws)
	}

	jobs := make(chan window)
	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr *domain.BatchError

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range jobs {
				res, err := s.embedder.GenerateEmbeddings(runCtx, w.texts, opts)
				if err != nil {
					if failFast {
						// Errors caused by our own cancellation must not
						// displace the failure that triggered it.
						if !errors.Is(err, context.Canceled) {
							errMu.Lock()
							if firstErr == nil || w.batch < firstErr.Batch {
								firstErr = &domain.BatchError{Batch: w.batch, Offset: w.offset, Err: err}
							}
							errMu.Unlock()
						}
						cancel()
						return
					}
					s.logger.Warn("embedding window failed",
						zap.Int("batch", w.batch),
						zap.Int("offset", w.offset),
						zap.Error(err))
					st.complete(w, domain.EmbeddingResult{}, err)
					continue
				}

				copy(st.results[w.offset:], res.Embeddings)
				st.complete(w, res, nil)
			}
		}()
	}

feed:
	for _, w := range ws {
		select {
		case jobs <- w:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if failFast {
		if firstErr != nil {
			return firstErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if st.done != st.total {
			// A worker stopped on a bare cancellation we chose not to record.
			return context.Canceled
		}
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		// Windows never handed to a worker get a cancellation outcome.
		for i := range st.outcomes {
			if st.outcomes[i].Status() == "" {
				st.outcomes[i] = batch.NewError(ws[i].batch, ws[i].offset, len(ws[i].texts), ctxErr)
			}
		}
		return ctxErr
	}
	return nil
}
