// Package bolt implements the vector store contract on an embedded bbolt file.
// Search is a brute-force cosine scan over an in-memory cache of the connected
// collection, reloaded from disk on Connect.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/kailas-cloud/emvex/internal/domain"
	"github.com/kailas-cloud/emvex/internal/domain/rank"
	"github.com/kailas-cloud/emvex/internal/store"
)

// bucketCollections is the root bucket; each collection is a nested bucket.
var bucketCollections = []byte("collections")

// Config holds bolt store settings.
type Config struct {
	// Path is the database file location.
	Path string
	// Dimensions fixes the vector size for every collection.
	// Zero lets each collection adopt the size of its first insert.
	Dimensions int
}

// storedVector is the on-disk JSON layout. Seq preserves insertion order
// because bbolt iterates keys in byte order.
type storedVector struct {
	Values   []float32         `json:"v"`
	Text     string            `json:"t,omitempty"`
	Metadata map[string]string `json:"m,omitempty"`
	Seq      uint64            `json:"s"`
}

type entry struct {
	vec domain.Vector
	seq uint64
}

// Store is a bbolt-backed vector store.
type Store struct {
	db  *bbolt.DB
	cfg Config

	mu    sync.RWMutex
	name  string
	dim   int
	cache []entry
	byID  map[string]int
}

var (
	_ store.Provider     = (*Store)(nil)
	_ store.VectorLister = (*Store)(nil)
)

// NewStore opens (or creates) the database file at cfg.Path.
func NewStore(cfg Config) (*Store, error) {
	db, err := bbolt.Open(cfg.Path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCollections)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create root bucket: %w", err)
	}

	return &Store{db: db, cfg: cfg}, nil
}

// Connect selects the working collection, creating its bucket if missing,
// and loads the collection into the in-memory cache.
func (s *Store) Connect(_ context.Context, name string) error {
	if name == "" {
		name = store.DefaultCollection
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.Bucket(bucketCollections).CreateBucketIfNotExists([]byte(name))
		return err
	})
	if err != nil {
		return &store.Error{Op: store.OpConnect, Err: err}
	}

	if err := s.loadCollection(name); err != nil {
		return &store.Error{Op: store.OpConnect, Err: err}
	}
	s.name = name
	return nil
}

// loadCollection rebuilds the cache from disk, ordered by insertion sequence.
// Caller holds the write lock.
func (s *Store) loadCollection(name string) error {
	var entries []entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCollections).Bucket([]byte(name))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var sv storedVector
			if err := json.Unmarshal(v, &sv); err != nil {
				// Skip corrupted entries rather than failing the whole load.
				return nil
			}
			entries = append(entries, entry{
				vec: domain.Vector{
					ID:       string(k),
					Values:   sv.Values,
					Text:     sv.Text,
					Metadata: sv.Metadata,
				},
				seq: sv.Seq,
			})
			return nil
		})
	})
	if err != nil {
		return err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	s.cache = entries
	s.byID = make(map[string]int, len(entries))
	for i := range entries {
		s.byID[entries[i].vec.ID] = i
	}

	s.dim = s.cfg.Dimensions
	if s.dim == 0 && len(entries) > 0 {
		s.dim = len(entries[0].vec.Values)
	}
	return nil
}

// Insert persists vectors in the connected collection. Re-inserting an
// existing ID replaces the stored vector and keeps its insertion position.
// The batch is all-or-nothing: a dimension mismatch anywhere rejects the
// whole call before the transaction starts.
func (s *Store) Insert(_ context.Context, vectors []domain.Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.name == "" {
		return store.NotConnected(store.OpInsert)
	}

	dim := s.dim
	if dim == 0 && len(vectors) > 0 {
		dim = len(vectors[0].Values)
	}
	for _, v := range vectors {
		if len(v.Values) != dim {
			return &store.Error{Op: store.OpInsert, Err: domain.NewDimensionMismatch(dim, len(v.Values))}
		}
	}
	s.dim = dim

	seqs := make([]uint64, len(vectors))
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCollections).Bucket([]byte(s.name))
		if b == nil {
			return fmt.Errorf("collection bucket %q missing", s.name)
		}

		for i, v := range vectors {
			if pos, ok := s.byID[v.ID]; ok {
				seqs[i] = s.cache[pos].seq
			} else {
				seq, err := b.NextSequence()
				if err != nil {
					return fmt.Errorf("next sequence: %w", err)
				}
				seqs[i] = seq
			}

			data, err := json.Marshal(storedVector{
				Values:   v.Values,
				Text:     v.Text,
				Metadata: v.Metadata,
				Seq:      seqs[i],
			})
			if err != nil {
				return fmt.Errorf("marshal vector %q: %w", v.ID, err)
			}
			if err := b.Put([]byte(v.ID), data); err != nil {
				return fmt.Errorf("put vector %q: %w", v.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return &store.Error{Op: store.OpInsert, Err: err}
	}

	// Cache is touched only after the transaction commits so it never
	// diverges from disk on rollback.
	for i, v := range vectors {
		cp := v
		cp.Values = make([]float32, len(v.Values))
		copy(cp.Values, v.Values)
		if pos, ok := s.byID[v.ID]; ok {
			s.cache[pos] = entry{vec: cp, seq: seqs[i]}
		} else {
			s.byID[v.ID] = len(s.cache)
			s.cache = append(s.cache, entry{vec: cp, seq: seqs[i]})
		}
	}
	return nil
}

// Search scans the cached collection and returns the topK most similar
// vectors, filtered by metadata. Equal scores keep insertion order.
func (s *Store) Search(
	_ context.Context, query []float32, topK int, filter domain.Filter,
) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.name == "" {
		return nil, store.NotConnected(store.OpSearch)
	}
	if s.dim != 0 && len(query) != s.dim {
		return nil, &store.Error{Op: store.OpSearch, Err: domain.NewDimensionMismatch(s.dim, len(query))}
	}

	candidates := make([]domain.Vector, 0, len(s.cache))
	for _, e := range s.cache {
		if filter.Matches(e.vec.Metadata) {
			candidates = append(candidates, e.vec)
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

// Delete removes vectors by ID from disk and cache. Missing IDs are ignored.
func (s *Store) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.name == "" {
		return store.NotConnected(store.OpDelete)
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCollections).Bucket([]byte(s.name))
		if b == nil {
			return nil
		}
		for _, id := range ids {
			if err := b.Delete([]byte(id)); err != nil {
				return fmt.Errorf("delete vector %q: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return &store.Error{Op: store.OpDelete, Err: err}
	}

	for _, id := range ids {
		pos, ok := s.byID[id]
		if !ok {
			continue
		}
		s.cache = append(s.cache[:pos], s.cache[pos+1:]...)
		delete(s.byID, id)
		for i := pos; i < len(s.cache); i++ {
			s.byID[s.cache[i].vec.ID] = i
		}
	}
	return nil
}

// Collections lists the collection buckets present in the file, sorted.
func (s *Store) Collections(_ context.Context) ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCollections).ForEach(func(k, v []byte) error {
			// Nested buckets carry a nil value.
			if v == nil {
				names = append(names, string(k))
			}
			return nil
		})
	})
	if err != nil {
		return nil, &store.Error{Op: store.OpCollections, Err: err}
	}
	sort.Strings(names)
	return names, nil
}

// ListVectors returns every vector of the connected collection in insertion order.
func (s *Store) ListVectors(_ context.Context) ([]domain.Vector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.name == "" {
		return nil, store.NotConnected(store.OpList)
	}

	out := make([]domain.Vector, len(s.cache))
	for i, e := range s.cache {
		out[i] = e.vec
	}
	return out, nil
}

// Ping verifies the database file handle is still usable.
func (s *Store) Ping(_ context.Context) error {
	err := s.db.View(func(*bbolt.Tx) error { return nil })
	if err != nil {
		return &store.Error{Op: store.OpPing, Err: err}
	}
	return nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}
