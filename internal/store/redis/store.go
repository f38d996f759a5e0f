package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/emvex/internal/domain"
	"github.com/kailas-cloud/emvex/internal/store"
)

var (
	_ store.Provider     = (*Store)(nil)
	_ store.VectorLister = (*Store)(nil)
)

// Hash fields of a stored vector.
const (
	fieldText   = "text"
	fieldMeta   = "meta"
	fieldVector = "__vector"
	fieldTS     = "ts"

	// filterFieldPrefix namespaces indexed metadata copies so they cannot
	// collide with the reserved fields above.
	filterFieldPrefix = "m_"
)

// Collection metadata hash fields.
const (
	metaFieldDim       = "dimensions"
	metaFieldAlgorithm = "algorithm"
	metaFieldCreatedAt = "created_at"
)

const metaPrefix = domain.KeyPrefix + "collection:"

func dataKey(collection, id string) string {
	return domain.KeyPrefix + "vec:" + collection + ":" + id
}

func dataPrefix(collection string) string {
	return domain.KeyPrefix + "vec:" + collection + ":"
}

func indexName(collection string) string {
	return domain.KeyPrefix + "vec:" + collection + ":idx"
}

func metaKey(collection string) string {
	return metaPrefix + collection
}

// Connect selects the working collection, writing its metadata and creating
// its search index on first use. An existing collection keeps its stored
// dimension; a conflicting Config.Dimensions is rejected.
func (s *Store) Connect(ctx context.Context, name string) error {
	if name == "" {
		name = store.DefaultCollection
	}

	meta, err := s.hGetAll(ctx, metaKey(name))
	if err != nil {
		return &store.Error{Op: store.OpConnect, Err: err}
	}

	dim := s.resolveDim()
	algo := s.resolveAlgorithm()
	if len(meta) == 0 {
		fields := map[string]string{
			metaFieldDim:       strconv.Itoa(dim),
			metaFieldAlgorithm: algo,
			metaFieldCreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.hSet(ctx, metaKey(name), fields); err != nil {
			return &store.Error{Op: store.OpConnect, Err: err}
		}
	} else {
		stored, err := strconv.Atoi(meta[metaFieldDim])
		if err != nil {
			return &store.Error{Op: store.OpConnect, Err: fmt.Errorf("corrupt metadata for %q: %w", name, err)}
		}
		if s.cfg.Dimensions > 0 && s.cfg.Dimensions != stored {
			return &store.Error{Op: store.OpConnect, Err: domain.NewDimensionMismatch(stored, s.cfg.Dimensions)}
		}
		dim = stored
		if a := meta[metaFieldAlgorithm]; a != "" {
			algo = a
		}
	}

	if err := s.ensureIndex(ctx, name, dim, algo); err != nil {
		return &store.Error{Op: store.OpConnect, Err: err}
	}

	s.mu.Lock()
	s.collection = name
	s.dim = dim
	s.mu.Unlock()
	return nil
}

// connected returns the bound collection and its dimension, "" when Connect
// has not been called yet.
func (s *Store) connected() (string, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection, s.dim
}

// Insert writes vectors as hashes in one pipeline. The insertion timestamp
// is written with HSETNX so re-inserting an ID keeps its original position
// in ListVectors.
func (s *Store) Insert(ctx context.Context, vectors []domain.Vector) error {
	coll, dim := s.connected()
	if coll == "" {
		return store.NotConnected(store.OpInsert)
	}
	if len(vectors) == 0 {
		return nil
	}

	now := strconv.FormatInt(time.Now().UnixNano(), 10)
	cmds := make(rueidis.Commands, 0, len(vectors)*2)
	keys := make([]string, 0, len(vectors)*2)

	for _, v := range vectors {
		if v.ID == "" {
			return &store.Error{Op: store.OpInsert, Err: fmt.Errorf("%w: vector id is empty", domain.ErrInvalidInput)}
		}
		if len(v.Values) != dim {
			return &store.Error{Op: store.OpInsert, Err: domain.NewDimensionMismatch(dim, len(v.Values))}
		}

		meta, err := marshalMetadata(v.Metadata)
		if err != nil {
			return &store.Error{Op: store.OpInsert, Err: fmt.Errorf("vector %s: %w", v.ID, err)}
		}

		key := dataKey(coll, v.ID)
		hset := s.b().Hset().Key(key).FieldValue().
			FieldValue(fieldText, v.Text).
			FieldValue(fieldMeta, meta).
			FieldValue(fieldVector, vectorToBytes(v.Values))

		var stale []string
		for _, fk := range s.cfg.FilterFields {
			if mv, ok := v.Metadata[fk]; ok {
				hset = hset.FieldValue(filterFieldPrefix+fk, mv)
			} else {
				stale = append(stale, filterFieldPrefix+fk)
			}
		}

		cmds = append(cmds, hset.Build())
		keys = append(keys, key)
		if len(stale) > 0 {
			cmds = append(cmds, s.b().Hdel().Key(key).Field(stale...).Build())
			keys = append(keys, key)
		}
		cmds = append(cmds, s.b().Hsetnx().Key(key).Field(fieldTS).Value(now).Build())
		keys = append(keys, key)
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &store.Error{Op: store.OpInsert, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
	}
	return nil
}

// Delete removes vectors by ID in one pipeline. Unknown IDs are ignored.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	coll, _ := s.connected()
	if coll == "" {
		return store.NotConnected(store.OpDelete)
	}
	if len(ids) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, s.b().Del().Key(dataKey(coll, id)).Build())
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &store.Error{Op: store.OpDelete, Err: fmt.Errorf("key %s: %w", dataKey(coll, ids[i]), err)}
		}
	}
	return nil
}

// Collections lists every collection known to this keyspace, sorted by name.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	keys, err := s.scanKeys(ctx, metaPrefix+"*")
	if err != nil {
		return nil, &store.Error{Op: store.OpCollections, Err: err}
	}

	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, metaPrefix))
	}
	sort.Strings(names)
	return names, nil
}

// ListVectors reads back the whole collection, ordered by insertion timestamp.
func (s *Store) ListVectors(ctx context.Context) ([]domain.Vector, error) {
	coll, _ := s.connected()
	if coll == "" {
		return nil, store.NotConnected(store.OpList)
	}

	prefix := dataPrefix(coll)
	keys, err := s.scanKeys(ctx, prefix+"*")
	if err != nil {
		return nil, &store.Error{Op: store.OpList, Err: err}
	}
	if len(keys) == 0 {
		return []domain.Vector{}, nil
	}

	rows, err := s.hGetAllMulti(ctx, keys)
	if err != nil {
		return nil, &store.Error{Op: store.OpList, Err: err}
	}

	type entry struct {
		vec domain.Vector
		ts  int64
	}
	entries := make([]entry, 0, len(keys))
	for i, fields := range rows {
		if len(fields) == 0 {
			continue // deleted between scan and read
		}
		vec, err := vectorFromFields(strings.TrimPrefix(keys[i], prefix), fields)
		if err != nil {
			return nil, &store.Error{Op: store.OpList, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		ts, _ := strconv.ParseInt(fields[fieldTS], 10, 64)
		entries = append(entries, entry{vec: vec, ts: ts})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ts != entries[j].ts {
			return entries[i].ts < entries[j].ts
		}
		return entries[i].vec.ID < entries[j].vec.ID
	})

	out := make([]domain.Vector, len(entries))
	for i, e := range entries {
		out[i] = e.vec
	}
	return out, nil
}

func marshalMetadata(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(data), nil
}

func metadataFromField(raw string) (map[string]string, error) {
	if raw == "" || raw == "{}" || raw == "null" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}

func vectorFromFields(id string, fields map[string]string) (domain.Vector, error) {
	raw, ok := fields[fieldVector]
	if !ok {
		return domain.Vector{}, fmt.Errorf("missing %s field", fieldVector)
	}
	meta, err := metadataFromField(fields[fieldMeta])
	if err != nil {
		return domain.Vector{}, err
	}
	return domain.Vector{
		ID:       id,
		Values:   bytesToVector([]byte(raw)),
		Text:     fields[fieldText],
		Metadata: meta,
	}, nil
}
