package emvex

import (
	"context"
	"time"

	"github.com/kailas-cloud/emvex/internal/domain"
)

// Connect selects the active collection, creating it on first use. Every
// other store operation requires a prior Connect and fails with
// ErrNotConnected otherwise.
func (c *Client) Connect(ctx context.Context, collection string) (err error) {
	defer c.obs.observe("connect", time.Now(), err)

	return c.store.Connect(ctx, collection)
}

// Insert upserts vectors into the active collection. Vectors whose
// dimensionality differs from the collection's fail with
// a DimensionMismatchError matching ErrInvalidInput.
func (c *Client) Insert(ctx context.Context, vectors []Vector) (err error) {
	defer c.obs.observe("insert", time.Now(), err)

	return c.store.Insert(ctx, toInternalVectors(vectors))
}

// Search returns up to topK vectors nearest to query, best first. A higher
// score always means more similar regardless of the backend. A nil filter
// matches everything.
func (c *Client) Search(ctx context.Context, query []float32, topK int, filter Filter) (results []SearchResult, err error) {
	defer c.obs.observe("search", time.Now(), err)

	rs, err := c.store.Search(ctx, query, topK, domain.Filter(filter))
	if err != nil {
		return nil, err
	}
	return fromInternalResults(rs), nil
}

// Delete removes vectors by ID from the active collection. Unknown IDs are
// ignored.
func (c *Client) Delete(ctx context.Context, ids ...string) (err error) {
	defer c.obs.observe("delete", time.Now(), err)

	return c.store.Delete(ctx, ids)
}

// Collections lists the collections known to the store.
func (c *Client) Collections(ctx context.Context) (names []string, err error) {
	defer c.obs.observe("collections", time.Now(), err)

	return c.store.Collections(ctx)
}

// Ping verifies the store connection.
func (c *Client) Ping(ctx context.Context) (err error) {
	defer c.obs.observe("ping", time.Now(), err)

	return c.store.Ping(ctx)
}
