// Package rank scores vectors by cosine similarity and selects the best matches.
package rank

import (
	"math"
	"sort"

	"github.com/kailas-cloud/emvex/internal/domain"
)

// Match pairs a candidate's position in the input slice with its score.
type Match struct {
	Index int
	Score float64
}

// Similarity returns the cosine similarity of two vectors in [-1, 1].
// Both inputs must have the same length. A zero vector on either side
// yields 0, never NaN.
func Similarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.NewDimensionMismatch(len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Distance returns the cosine distance 1 - Similarity(a, b), in [0, 2].
func Distance(a, b []float32) (float64, error) {
	sim, err := Similarity(a, b)
	if err != nil {
		return 0, err
	}
	return 1 - sim, nil
}

// TopK scores every candidate against the query and returns the k best,
// ordered by descending similarity. Candidates with equal scores keep
// their input order. k <= 0 yields an empty result; k >= len(candidates)
// returns all candidates sorted.
func TopK(query []float32, candidates [][]float32, k int) ([]Match, error) {
	if k <= 0 {
		return []Match{}, nil
	}

	matches := make([]Match, len(candidates))
	for i, c := range candidates {
		score, err := Similarity(query, c)
		if err != nil {
			return nil, err
		}
		matches[i] = Match{Index: i, Score: score}
	}

	// SliceStable keeps insertion order among equal scores.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}
