package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/emvex/internal/domain"
	"github.com/kailas-cloud/emvex/internal/store"
)

// RediSearch reports the KNN distance in this pseudo-field.
const scoreField = "__vector_score"

// Over-fetch bounds for filter keys that are not indexed and therefore
// have to be checked client side.
const (
	postFilterOverfetch = 4
	maxKNNFetch         = 512
)

// Search runs a KNN query via FT.SEARCH. Filters on declared FilterFields
// run inside the query as TAG conditions; filters on any other metadata key
// are applied to an over-fetched candidate set after the fact.
func (s *Store) Search(ctx context.Context, query []float32, topK int, f domain.Filter) ([]domain.SearchResult, error) {
	coll, dim := s.connected()
	if coll == "" {
		return nil, store.NotConnected(store.OpSearch)
	}
	if topK <= 0 {
		return []domain.SearchResult{}, nil
	}
	if len(query) != dim {
		return nil, &store.Error{Op: store.OpSearch, Err: domain.NewDimensionMismatch(dim, len(query))}
	}

	filterExpr, needsPostFilter := s.splitFilter(f)
	fetch := topK
	if needsPostFilter {
		fetch = topK * postFilterOverfetch
		if fetch > maxKNNFetch {
			fetch = maxKNNFetch
		}
		if fetch < topK {
			fetch = topK
		}
	}

	knnPart := fmt.Sprintf("[KNN %d @vector $BLOB]", fetch)
	queryStr := "*=>" + knnPart
	if filterExpr != "" {
		queryStr = fmt.Sprintf("(%s)=>%s", filterExpr, knnPart)
	}

	args := []string{
		indexName(coll), queryStr,
		"RETURN", "3", fieldText, fieldMeta, scoreField,
		"PARAMS", "2", "BLOB", vectorToBytes(query),
		// The default LIMIT of 10 would silently drop KNN candidates.
		"LIMIT", "0", strconv.Itoa(fetch),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &store.Error{Op: store.OpSearch, Err: err}
	}

	hits, err := parseKNNResult(raw)
	if err != nil {
		return nil, &store.Error{Op: store.OpSearch, Err: err}
	}

	prefix := dataPrefix(coll)
	out := make([]domain.SearchResult, 0, topK)
	for _, h := range hits {
		meta, err := metadataFromField(h.Fields[fieldMeta])
		if err != nil {
			return nil, &store.Error{Op: store.OpSearch, Err: fmt.Errorf("key %s: %w", h.Key, err)}
		}
		if !f.Matches(meta) {
			continue
		}
		out = append(out, domain.SearchResult{
			ID:       strings.TrimPrefix(h.Key, prefix),
			Score:    h.Score,
			Text:     h.Fields[fieldText],
			Metadata: meta,
		})
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

// splitFilter renders the declared part of f as an FT.SEARCH pre-filter and
// reports whether any remaining key must be checked client side.
func (s *Store) splitFilter(f domain.Filter) (string, bool) {
	if len(f) == 0 {
		return "", false
	}

	declared := make(map[string]bool, len(s.cfg.FilterFields))
	parts := make([]string, 0, len(f))
	for _, fk := range s.cfg.FilterFields {
		declared[fk] = true
		if v, ok := f[fk]; ok {
			parts = append(parts, buildTagFilter(fk, v))
		}
	}

	post := false
	for k := range f {
		if !declared[k] {
			post = true
			break
		}
	}
	return strings.Join(parts, " "), post
}

type knnHit struct {
	Key    string
	Score  float64
	Fields map[string]string
}

func parseKNNResult(raw []rueidis.RedisMessage) ([]knnHit, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	hits := make([]knnHit, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fieldArr, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		hit := knnHit{Key: key, Fields: parseFieldPairs(fieldArr)}
		if scoreStr, ok := hit.Fields[scoreField]; ok {
			if d, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				hit.Score = max(0, 1.0-d) // cosine distance to similarity, clamped to [0,1]
			}
			delete(hit.Fields, scoreField)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

func buildTagFilter(key, value string) string {
	return fmt.Sprintf("@%s:{%s}", key, tagEscaper.Replace(value))
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

func bytesToVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
