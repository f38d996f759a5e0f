package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/emvex/internal/domain"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(Config{Path: filepath.Join(t.TempDir(), "vectors.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_NotConnected(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.Insert(ctx, []domain.Vector{{ID: "a", Values: []float32{1}}}); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("insert: expected ErrNotConnected, got %v", err)
	}
	if _, err := s.Search(ctx, []float32{1}, 5, nil); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("search: expected ErrNotConnected, got %v", err)
	}
	if err := s.Delete(ctx, []string{"a"}); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("delete: expected ErrNotConnected, got %v", err)
	}
}

func TestStore_InsertSearchRoundtrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.Connect(ctx, "docs"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	err := s.Insert(ctx, []domain.Vector{
		{ID: "a", Values: []float32{1, 0}, Text: "alpha", Metadata: map[string]string{"lang": "en"}},
		{ID: "b", Values: []float32{0, 1}, Text: "beta"},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	results, err := s.Search(ctx, []float32{1, 0}, 1, nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "a" {
		t.Fatalf("want best match a, got %v", results)
	}
	if results[0].Text != "alpha" || results[0].Metadata["lang"] != "en" {
		t.Errorf("payload lost: %+v", results[0])
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.db")
	ctx := context.Background()

	s, err := NewStore(Config{Path: path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Connect(ctx, "docs"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	err = s.Insert(ctx, []domain.Vector{
		{ID: "b", Values: []float32{0, 1}, Text: "beta"},
		{ID: "a", Values: []float32{1, 0}, Text: "alpha"},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(Config{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if err := reopened.Connect(ctx, "docs"); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	vectors, err := reopened.ListVectors(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("want 2 vectors after reopen, got %d", len(vectors))
	}
	// Insertion order survives reopen via the stored sequence.
	if vectors[0].ID != "b" || vectors[1].ID != "a" {
		t.Errorf("want order [b a], got [%s %s]", vectors[0].ID, vectors[1].ID)
	}
}

func TestStore_DeleteThenSearch(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.Connect(ctx, "docs"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	err := s.Insert(ctx, []domain.Vector{
		{ID: "a", Values: []float32{1, 0}},
		{ID: "b", Values: []float32{0.9, 0.1}},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := s.Delete(ctx, []string{"a", "ghost"}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	results, err := s.Search(ctx, []float32{1, 0}, 10, nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "b" {
		t.Fatalf("want only b after delete, got %v", results)
	}
}

func TestStore_DimensionMismatch(t *testing.T) {
	s, err := NewStore(Config{
		Path:       filepath.Join(t.TempDir(), "vectors.db"),
		Dimensions: 4,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	if err := s.Connect(ctx, "docs"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	err = s.Insert(ctx, []domain.Vector{{ID: "a", Values: []float32{1, 2}}})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	if err := s.Insert(ctx, []domain.Vector{{ID: "a", Values: []float32{1, 2, 3, 4}}}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, err = s.Search(ctx, []float32{1, 2}, 5, nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("search: expected ErrInvalidInput for short query, got %v", err)
	}
}

func TestStore_ReinsertKeepsPosition(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.Connect(ctx, "docs"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	err := s.Insert(ctx, []domain.Vector{
		{ID: "a", Values: []float32{1}, Text: "old"},
		{ID: "b", Values: []float32{2}},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Insert(ctx, []domain.Vector{{ID: "a", Values: []float32{3}, Text: "new"}}); err != nil {
		t.Fatalf("reinsert: %v", err)
	}

	vectors, err := s.ListVectors(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("want 2 vectors, got %d", len(vectors))
	}
	if vectors[0].ID != "a" || vectors[0].Text != "new" {
		t.Errorf("want a replaced in place, got %+v", vectors[0])
	}
}

func TestStore_Collections(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha"} {
		if err := s.Connect(ctx, name); err != nil {
			t.Fatalf("connect %s: %v", name, err)
		}
	}

	names, err := s.Collections(ctx)
	if err != nil {
		t.Fatalf("collections: %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("want sorted [alpha zeta], got %v", names)
	}
}

func TestStore_Ping(t *testing.T) {
	s := openStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping on open store: %v", err)
	}
}

func TestStore_SearchWithFilter(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.Connect(ctx, "docs"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	err := s.Insert(ctx, []domain.Vector{
		{ID: "a", Values: []float32{1, 0}, Metadata: map[string]string{"source": "wiki"}},
		{ID: "b", Values: []float32{1, 0}, Metadata: map[string]string{"source": "blog"}},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	results, err := s.Search(ctx, []float32{1, 0}, 10, domain.Filter{"source": "blog"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "b" {
		t.Fatalf("want only b, got %v", results)
	}
}
