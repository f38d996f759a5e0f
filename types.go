package emvex

import (
	"github.com/kailas-cloud/emvex/internal/domain"
	dombatch "github.com/kailas-cloud/emvex/internal/domain/batch"
)

// Vector is a stored embedding together with its source text and metadata.
type Vector struct {
	ID       string
	Values   []float32
	Text     string
	Metadata map[string]string
}

// SearchResult is a single similarity hit. Score is normalized so that
// higher always means more similar, whatever the backend.
type SearchResult struct {
	ID       string
	Score    float64
	Text     string
	Metadata map[string]string
}

// Document is an input item for indexing: raw text plus optional identity
// and metadata. Its vector is derived by the pipeline, never supplied.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Filter narrows a search to vectors whose metadata contains every listed
// pair. A nil or empty filter matches everything.
type Filter map[string]string

// ClusterResult is the outcome of one clustering run. Clusters holds the
// member vector IDs of each cluster, index-aligned with Centroids.
type ClusterResult struct {
	Centroids  [][]float32
	Clusters   [][]string
	Iterations int
}

// BatchOutcome reports how one window of a partial embedding run ended.
// Batch is the zero-based window index, Offset the input index of its
// first text, Size the number of texts it covered.
type BatchOutcome struct {
	Batch  int
	Offset int
	Size   int
	OK     bool
	Err    error
}

func toInternalVectors(vectors []Vector) []domain.Vector {
	out := make([]domain.Vector, len(vectors))
	for i, v := range vectors {
		out[i] = domain.Vector(v)
	}
	return out
}

func toInternalDocuments(docs []Document) []domain.Document {
	out := make([]domain.Document, len(docs))
	for i, d := range docs {
		out[i] = domain.Document(d)
	}
	return out
}

func fromInternalResults(results []domain.SearchResult) []SearchResult {
	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult(r)
	}
	return out
}

func fromInternalWindows(windows []dombatch.Window) []BatchOutcome {
	out := make([]BatchOutcome, len(windows))
	for i, w := range windows {
		out[i] = BatchOutcome{
			Batch:  w.Batch(),
			Offset: w.Offset(),
			Size:   w.Size(),
			OK:     w.Status() == dombatch.StatusOK,
			Err:    w.Err(),
		}
	}
	return out
}
