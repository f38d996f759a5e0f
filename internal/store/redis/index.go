package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/emvex/internal/domain"
)

// ensureIndex creates the collection's search index unless it already exists.
func (s *Store) ensureIndex(ctx context.Context, collection string, dim int, algorithm string) error {
	exists, err := s.indexExists(ctx, collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	args, err := buildIndexArgs(collection, dim, algorithm, s.hnswM(), s.hnswEFConstruct(), s.cfg.FilterFields)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil // lost a create race, the index is there
		}
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (s *Store) indexExists(ctx context.Context, collection string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(indexName(collection)).Build()
	err := s.do(ctx, cmd).Error()
	if err == nil {
		return true, nil
	}
	// Wording differs across RediSearch versions.
	if isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index") {
		return false, nil
	}
	return false, fmt.Errorf("index info: %w", err)
}

// buildIndexArgs assembles FT.CREATE arguments for a collection index:
// one TAG field per declared filter key plus the vector field itself.
func buildIndexArgs(collection string, dim int, algorithm string, m, efConstruct int, filterFields []string) ([]string, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("vector dim must be positive, got %d", dim)
	}

	args := []string{
		indexName(collection),
		"ON", "HASH",
		"PREFIX", "1", dataPrefix(collection),
		"SCHEMA",
	}

	for _, fk := range filterFields {
		args = append(args, filterFieldPrefix+fk, "AS", fk, "TAG")
	}

	args = append(args, fieldVector, "AS", "vector", "VECTOR")
	switch algorithm {
	case "", "hnsw":
		args = append(args, "HNSW", "10",
			"TYPE", "FLOAT32",
			"DIM", strconv.Itoa(dim),
			"DISTANCE_METRIC", "COSINE",
			"M", strconv.Itoa(m),
			"EF_CONSTRUCTION", strconv.Itoa(efConstruct),
		)
	case "flat":
		args = append(args, "FLAT", "6",
			"TYPE", "FLOAT32",
			"DIM", strconv.Itoa(dim),
			"DISTANCE_METRIC", "COSINE",
		)
	default:
		return nil, fmt.Errorf("%w: index algorithm %q", domain.ErrUnsupportedOption, algorithm)
	}

	return args, nil
}

func (s *Store) hnswM() int {
	if s.cfg.HNSWM > 0 {
		return s.cfg.HNSWM
	}
	return DefaultHNSWM
}

func (s *Store) hnswEFConstruct() int {
	if s.cfg.HNSWEFConstruct > 0 {
		return s.cfg.HNSWEFConstruct
	}
	return DefaultHNSWEFConstruct
}
