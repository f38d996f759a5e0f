package redis

import "github.com/redis/rueidis"

// NewStoreForTest creates a Store with the provided rueidis client (test-only).
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c}
}

// NewConnectedStoreForTest creates a Store already bound to a collection (test-only).
func NewConnectedStoreForTest(c rueidis.Client, cfg Config, collection string, dim int) *Store {
	return &Store{client: c, cfg: cfg, collection: collection, dim: dim}
}
