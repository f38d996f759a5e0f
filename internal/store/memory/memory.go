// Package memory implements the vector store contract with an in-process map.
// Suited for tests and small corpora; search is a brute-force cosine scan.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kailas-cloud/emvex/internal/domain"
	"github.com/kailas-cloud/emvex/internal/domain/rank"
	"github.com/kailas-cloud/emvex/internal/store"
)

// Config holds memory store settings.
type Config struct {
	// Dimensions fixes the vector size for every collection.
	// Zero lets each collection adopt the size of its first insert.
	Dimensions int
}

// collection keeps vectors in insertion order so equal-score search results
// and full listings stay deterministic.
type collection struct {
	dim     int
	entries []domain.Vector
	byID    map[string]int
}

// Store is an in-memory vector store.
type Store struct {
	mu          sync.RWMutex
	cfg         Config
	collections map[string]*collection
	current     *collection
}

var (
	_ store.Provider     = (*Store)(nil)
	_ store.VectorLister = (*Store)(nil)
)

// NewStore creates an empty in-memory store.
func NewStore(cfg Config) *Store {
	return &Store{
		cfg:         cfg,
		collections: make(map[string]*collection),
	}
}

// Connect selects the working collection, creating it if missing.
func (s *Store) Connect(_ context.Context, name string) error {
	if name == "" {
		name = store.DefaultCollection
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		c = &collection{
			dim:  s.cfg.Dimensions,
			byID: make(map[string]int),
		}
		s.collections[name] = c
	}
	s.current = c
	return nil
}

// Insert stores vectors in the connected collection. Re-inserting an existing
// ID replaces the stored vector in place. The batch is all-or-nothing: a
// dimension mismatch anywhere rejects the whole call before any mutation.
func (s *Store) Insert(_ context.Context, vectors []domain.Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return store.NotConnected(store.OpInsert)
	}

	c := s.current
	dim := c.dim
	if dim == 0 && len(vectors) > 0 {
		dim = len(vectors[0].Values)
	}
	for _, v := range vectors {
		if len(v.Values) != dim {
			return &store.Error{Op: store.OpInsert, Err: domain.NewDimensionMismatch(dim, len(v.Values))}
		}
	}
	c.dim = dim

	for _, v := range vectors {
		cp := v
		cp.Values = make([]float32, len(v.Values))
		copy(cp.Values, v.Values)

		if pos, ok := c.byID[v.ID]; ok {
			c.entries[pos] = cp
			continue
		}
		c.byID[v.ID] = len(c.entries)
		c.entries = append(c.entries, cp)
	}
	return nil
}

// Search scans the connected collection and returns the topK most similar
// vectors, filtered by metadata. Equal scores keep insertion order.
func (s *Store) Search(
	_ context.Context, query []float32, topK int, filter domain.Filter,
) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, store.NotConnected(store.OpSearch)
	}

	c := s.current
	if c.dim != 0 && len(query) != c.dim {
		return nil, &store.Error{Op: store.OpSearch, Err: domain.NewDimensionMismatch(c.dim, len(query))}
	}

	candidates := make([]domain.Vector, 0, len(c.entries))
	for _, v := range c.entries {
		if filter.Matches(v.Metadata) {
			candidates = append(candidates, v)
		}
	}

	values := make([][]float32, len(candidates))
	for i := range candidates {
		values[i] = candidates[i].Values
	}

	matches, err := rank.TopK(query, values, topK)
	if err != nil {
		return nil, &store.Error{Op: store.OpSearch, Err: err}
	}

	results := make([]domain.SearchResult, len(matches))
	for i, m := range matches {
		v := candidates[m.Index]
		results[i] = domain.SearchResult{
			ID:       v.ID,
			Score:    m.Score,
			Text:     v.Text,
			Metadata: v.Metadata,
		}
	}
	return results, nil
}

// Delete removes vectors by ID. Missing IDs are ignored.
func (s *Store) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return store.NotConnected(store.OpDelete)
	}

	c := s.current
	for _, id := range ids {
		pos, ok := c.byID[id]
		if !ok {
			continue
		}
		c.entries = append(c.entries[:pos], c.entries[pos+1:]...)
		delete(c.byID, id)
		for i := pos; i < len(c.entries); i++ {
			c.byID[c.entries[i].ID] = i
		}
	}
	return nil
}

// Collections lists the collection names seen so far, sorted.
func (s *Store) Collections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ListVectors returns every vector of the connected collection in insertion order.
func (s *Store) ListVectors(_ context.Context) ([]domain.Vector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, store.NotConnected(store.OpList)
	}

	out := make([]domain.Vector, len(s.current.entries))
	copy(out, s.current.entries)
	return out, nil
}

// Ping reports readiness. An in-process store is always reachable.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close releases nothing but satisfies the provider contract.
func (s *Store) Close() error { return nil }
