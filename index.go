package emvex

import (
	"context"
	"fmt"
)

// TypedIndex is a generic, schema-first index backed by an emvex Client.
// Schema is inferred from T's struct tags at construction time:
//
//	type Article struct {
//		ID   string `emvex:"id,id"`
//		Body string `emvex:"body,text"`
//		Lang string `emvex:"lang"`
//	}
//
// The id field becomes the vector ID, the text field is embedded, every
// other tagged field lands in the metadata and can be filtered with Where.
// Every tagged field must be a string.
type TypedIndex[T any] struct {
	name   string
	client *Client
	meta   *schemaMeta
}

// NewIndex creates a typed index handle for the given collection name.
// T must be a struct with emvex tags. Schema is parsed once and cached.
func NewIndex[T any](client *Client, name string) (*TypedIndex[T], error) {
	meta, err := parseSchema[T]()
	if err != nil {
		return nil, fmt.Errorf("new index %q: %w", name, err)
	}
	return &TypedIndex[T]{name: name, client: client, meta: meta}, nil
}

// Upsert embeds and stores a single item, returning its final ID.
func (idx *TypedIndex[T]) Upsert(ctx context.Context, item T) (string, error) {
	ids, err := idx.client.Index(ctx, idx.name, []Document{idx.meta.toDocument(item)})
	if err != nil {
		return "", fmt.Errorf("upsert: %w", err)
	}
	return ids[0], nil
}

// UpsertBatch embeds and stores items in batch, returning their final IDs in
// input order.
func (idx *TypedIndex[T]) UpsertBatch(ctx context.Context, items []T) ([]string, error) {
	docs := make([]Document, len(items))
	for i, item := range items {
		docs[i] = idx.meta.toDocument(item)
	}
	return idx.client.Index(ctx, idx.name, docs)
}

// Delete removes items by ID.
func (idx *TypedIndex[T]) Delete(ctx context.Context, ids ...string) error {
	if err := idx.client.Connect(ctx, idx.name); err != nil {
		return err
	}
	return idx.client.Delete(ctx, ids...)
}

// Search returns a fluent search builder for this index.
func (idx *TypedIndex[T]) Search() *SearchBuilder[T] {
	return &SearchBuilder[T]{idx: idx}
}
