package emvex

import (
	"context"
	"time"

	domcluster "github.com/kailas-cloud/emvex/internal/domain/cluster"
)

type clusterConfig struct {
	seed    int64
	seedSet bool
	maxIter int
}

// ClusterOption tunes a single Cluster call.
type ClusterOption func(*clusterConfig)

// WithSeed fixes the centroid initialization seed. The same seed over the
// same collection yields the same clustering.
func WithSeed(seed int64) ClusterOption {
	return func(cc *clusterConfig) {
		cc.seed = seed
		cc.seedSet = true
	}
}

// WithMaxIterations caps the number of refinement rounds.
func WithMaxIterations(n int) ClusterOption {
	return func(cc *clusterConfig) {
		cc.maxIter = n
	}
}

// Cluster partitions the vectors of collection into k groups by cosine
// distance k-means. k greater than the vector count fails with
// ErrInvalidInput. Without WithSeed each call seeds from the clock.
func (c *Client) Cluster(ctx context.Context, collection string, k int, opts ...ClusterOption) (res ClusterResult, err error) {
	defer c.obs.observe("cluster", time.Now(), err)

	var cc clusterConfig
	for _, o := range opts {
		o(&cc)
	}
	if !cc.seedSet {
		cc.seed = time.Now().UnixNano()
	}

	g, err := c.clusterSvc.Group(ctx, collection, k, domcluster.Options{
		Seed:          cc.seed,
		MaxIterations: cc.maxIter,
	})
	if err != nil {
		return ClusterResult{}, err
	}
	return ClusterResult(g), nil
}
