package emvex

import (
	"github.com/kailas-cloud/emvex/internal/domain/rank"
)

// Match pairs a candidate's position in the input with its similarity score.
type Match struct {
	Index int
	Score float64
}

// Similarity returns the cosine similarity of a and b in [-1, 1]. Vectors of
// different lengths fail with ErrInvalidInput. A zero vector on either side
// yields 0, never NaN.
func Similarity(a, b []float32) (float64, error) {
	return rank.Similarity(a, b)
}

// TopK ranks candidates by cosine similarity to query and returns the k best,
// most similar first. Ties keep input order. k <= 0 yields an empty result;
// k >= len(candidates) returns all candidates sorted.
func TopK(query []float32, candidates [][]float32, k int) ([]Match, error) {
	ms, err := rank.TopK(query, candidates, k)
	if err != nil {
		return nil, err
	}
	out := make([]Match, len(ms))
	for i, m := range ms {
		out[i] = Match(m)
	}
	return out, nil
}
