// Package emvex is an embedding and vector retrieval engine: pluggable
// embedding providers behind one contract, a chunked batch pipeline with
// bounded concurrency, interchangeable vector stores, and cosine similarity
// search and k-means clustering over the stored vectors.
//
// # Client API
//
//	client, _ := emvex.New(ctx,
//	    emvex.WithRedis("localhost:6379", ""),
//	    emvex.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	defer client.Close()
//
//	ids, _ := client.Index(ctx, "articles", []emvex.Document{
//	    {Text: "Go ships a race detector", Metadata: map[string]string{"lang": "en"}},
//	})
//	hits, _ := client.Query(ctx, "articles", "tooling for data races", 5, nil)
//
// Without a store option vectors live in process memory, which is enough
// for tests and small corpora. Raw vector operations (Connect, Insert,
// Search) work without an embedding provider.
//
// # Typed API
//
//	type Article struct {
//	    ID   string `emvex:"id,id"`
//	    Body string `emvex:"body,text"`
//	    Lang string `emvex:"lang"`
//	}
//
//	idx, _ := emvex.NewIndex[Article](client, "articles")
//	_, _ = idx.UpsertBatch(ctx, articles)
//	hits, _ := idx.Search().Query("tooling for data races").Where("lang", "en").TopK(5).Do(ctx)
package emvex
