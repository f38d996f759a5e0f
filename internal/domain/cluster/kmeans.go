// Package cluster groups vectors with k-means over cosine distance.
package cluster

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/kailas-cloud/emvex/internal/domain"
	"github.com/kailas-cloud/emvex/internal/domain/rank"
)

// DefaultMaxIterations bounds the assign/update loop when the caller does not.
const DefaultMaxIterations = 100

// Options tunes a clustering run. Zero MaxIterations means DefaultMaxIterations.
// Two runs with the same seed over the same input produce identical results.
type Options struct {
	Seed          int64
	MaxIterations int
}

// Result holds final centroids and the centroid index assigned to each input vector.
type Result struct {
	Centroids   [][]float32
	Assignments []int
	Iterations  int
}

// KMeans partitions vectors into k groups by cosine distance.
// Initial centroids are k distinct input vectors chosen by the seeded
// generator. The loop stops when assignments no longer change or after
// MaxIterations passes. A cluster left without members keeps its previous
// centroid.
func KMeans(vectors [][]float32, k int, opts Options) (Result, error) {
	if len(vectors) == 0 {
		return Result{}, fmt.Errorf("%w: no vectors to cluster", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return Result{}, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if k > len(vectors) {
		return Result{}, fmt.Errorf(
			"%w: k %d exceeds vector count %d", domain.ErrInvalidInput, k, len(vectors))
	}

	dim := len(vectors[0])
	for _, v := range vectors[1:] {
		if len(v) != dim {
			return Result{}, domain.NewDimensionMismatch(dim, len(v))
		}
	}

	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	centroids := initialCentroids(vectors, k, rng)

	assignments := make([]int, len(vectors))
	for i := range assignments {
		assignments[i] = -1
	}

	iterations := 0
	for iter := 0; iter < maxIter; iter++ {
		iterations++

		changed := false
		for i, v := range vectors {
			best, err := nearestCentroid(v, centroids)
			if err != nil {
				return Result{}, err
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		updateCentroids(centroids, vectors, assignments)
	}

	return Result{
		Centroids:   centroids,
		Assignments: assignments,
		Iterations:  iterations,
	}, nil
}

// initialCentroids copies k distinct input vectors picked by the seeded generator.
func initialCentroids(vectors [][]float32, k int, rng *rand.Rand) [][]float32 {
	perm := rng.Perm(len(vectors))
	centroids := make([][]float32, k)
	for j := 0; j < k; j++ {
		src := vectors[perm[j]]
		c := make([]float32, len(src))
		copy(c, src)
		centroids[j] = c
	}
	return centroids
}

// nearestCentroid returns the index of the closest centroid by cosine
// distance. Ties resolve to the lowest index.
func nearestCentroid(v []float32, centroids [][]float32) (int, error) {
	best := 0
	bestDist := math.MaxFloat64
	for j, c := range centroids {
		d, err := rank.Distance(v, c)
		if err != nil {
			return 0, err
		}
		if d < bestDist {
			bestDist = d
			best = j
		}
	}
	return best, nil
}

// updateCentroids recomputes each centroid as the component-wise mean of
// its members, accumulating in float64. Empty clusters are left untouched.
func updateCentroids(centroids [][]float32, vectors [][]float32, assignments []int) {
	dim := len(vectors[0])
	sums := make([][]float64, len(centroids))
	counts := make([]int, len(centroids))
	for j := range sums {
		sums[j] = make([]float64, dim)
	}

	for i, v := range vectors {
		j := assignments[i]
		counts[j]++
		for d, x := range v {
			sums[j][d] += float64(x)
		}
	}

	for j := range centroids {
		if counts[j] == 0 {
			continue
		}
		for d := range centroids[j] {
			centroids[j][d] = float32(sums[j][d] / float64(counts[j]))
		}
	}
}
