// Package store defines the uniform vector store contract shared by all backends.
package store

import (
	"context"
	"errors"

	"github.com/kailas-cloud/emvex/internal/domain"
)

// DefaultCollection is used when Connect is called with an empty name.
const DefaultCollection = "default"

// ErrKeyNotFound is returned by key-value lookups when the key does not exist.
var ErrKeyNotFound = errors.New("store: key not found")

// Provider is the backend contract for vector persistence and similarity search.
//
// Connect selects the working collection, creating it on first use, and must
// be called before any data operation. Calling it again is a no-op for the
// same name and a switch for a different one. Search scores are normalized
// so that higher always means more similar, whatever the backend metric.
type Provider interface {
	Connect(ctx context.Context, collection string) error
	Insert(ctx context.Context, vectors []domain.Vector) error
	Search(ctx context.Context, query []float32, topK int, filter domain.Filter) ([]domain.SearchResult, error)
	Delete(ctx context.Context, ids []string) error
	Collections(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// VectorLister enumerates every vector of the connected collection in
// insertion order. Optional: only backends that can afford a full scan
// implement it.
type VectorLister interface {
	ListVectors(ctx context.Context) ([]domain.Vector, error)
}

// Op constants name provider operations for error context.
const (
	OpConnect     = "connect"
	OpInsert      = "insert"
	OpSearch      = "search"
	OpDelete      = "delete"
	OpCollections = "collections"
	OpPing        = "ping"
	OpList        = "list"
	OpGet         = "get"
	OpSet         = "set"
	OpIncrBy      = "incrby"
	OpExpire      = "expire"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// NotConnected builds the guard error for data operations issued before Connect.
func NotConnected(op string) error {
	return &Error{Op: op, Err: domain.ErrNotConnected}
}
