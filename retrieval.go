package emvex

import (
	"context"
	"time"

	"github.com/kailas-cloud/emvex/internal/domain"
)

// Index embeds docs and inserts them into collection, connecting first.
// Documents without an ID get a generated UUID; the returned slice holds the
// final ID of every document in input order. Failures carry a *PipelineError
// whose Stage tells the embedding step apart from the store step:
//
//	var pe *emvex.PipelineError
//	if errors.As(err, &pe) && pe.Stage == emvex.StageEmbed { ... }
func (c *Client) Index(ctx context.Context, collection string, docs []Document) (ids []string, err error) {
	defer c.obs.observe("index", time.Now(), err)

	return c.retrievalSvc.Index(ctx, collection, toInternalDocuments(docs))
}

// Query embeds text and searches collection for the topK nearest documents,
// best first. A nil filter matches everything.
func (c *Client) Query(ctx context.Context, collection, text string, topK int, filter Filter) (results []SearchResult, err error) {
	defer c.obs.observe("query", time.Now(), err)

	rs, err := c.retrievalSvc.Query(ctx, collection, text, topK, domain.Filter(filter))
	if err != nil {
		return nil, err
	}
	return fromInternalResults(rs), nil
}
