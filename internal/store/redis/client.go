// Package redis implements the vector store contract on Redis Stack.
//
// Vectors live in hashes under "emvex:vec:<collection>:<id>" and are searched
// through a RediSearch index per collection. Collection metadata (dimension,
// index algorithm) is kept in "emvex:collection:<name>" hashes so a collection
// created by one process can be reopened by another with the same settings.
package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/emvex/internal/domain"
)

// HNSW build parameters applied when Config leaves them zero.
const (
	DefaultHNSWM           = 32
	DefaultHNSWEFConstruct = 400
)

// Config holds Redis connection and collection settings.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int

	// Dimensions fixes the vector size for collections created by this
	// store. Zero falls back to the default model dimension. Existing
	// collections keep their stored dimension regardless.
	Dimensions int

	// Algorithm selects the vector index type, "hnsw" (default) or "flat".
	Algorithm       string
	HNSWM           int
	HNSWEFConstruct int

	// FilterFields lists metadata keys indexed as TAG fields. Filters on
	// these keys run server side inside FT.SEARCH; filters on any other
	// key are applied client side after over-fetching.
	FilterFields []string
}

// Store is a Redis-backed vector store.
type Store struct {
	client rueidis.Client
	cfg    Config

	mu         sync.RWMutex
	collection string
	dim        int
}

// NewStore creates a Store connected to Redis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client, cfg: cfg}, nil
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.do(ctx, s.b().Ping().Build()).Error()
}

// Close releases the connection.
func (s *Store) Close() error {
	s.client.Close()
	return nil
}

// WaitForReady polls Ping until the server responds or the timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for redis: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// resolveDim returns the dimension used for newly created collections.
func (s *Store) resolveDim() int {
	if s.cfg.Dimensions > 0 {
		return s.cfg.Dimensions
	}
	return domain.DefaultVectorConfig().Dimensions
}

// resolveAlgorithm returns the index algorithm for newly created collections.
func (s *Store) resolveAlgorithm() string {
	if s.cfg.Algorithm != "" {
		return strings.ToLower(s.cfg.Algorithm)
	}
	return domain.DefaultVectorConfig().Algorithm
}

// isRedisErr checks if err is a Redis server error containing substr
// (case-insensitive). RediSearch module errors carry no stable codes,
// only messages.
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return containsIgnoreCase(re.Error(), substr)
}

func containsIgnoreCase(s, substr string) bool {
	ls := len(s)
	lsub := len(substr)
	if lsub > ls {
		return false
	}
	for i := 0; i <= ls-lsub; i++ {
		match := true
		for j := 0; j < lsub; j++ {
			sc := s[i+j]
			tc := substr[j]
			if sc >= 'A' && sc <= 'Z' {
				sc += 'a' - 'A'
			}
			if tc >= 'A' && tc <= 'Z' {
				tc += 'a' - 'A'
			}
			if sc != tc {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
