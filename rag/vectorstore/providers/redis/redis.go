// Package redis implements vectorstore.VectorStore on top of Redis Stack's
// RediSearch vector similarity module (FT.CREATE / FT.SEARCH over HASH keys).
package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lookatitude/skill-engine/config"
	"github.com/lookatitude/skill-engine/rag/vectorstore"
	"github.com/lookatitude/skill-engine/schema"
)

const (
	defaultIndex     = "idx:documents"
	defaultPrefix    = "doc:"
	defaultDimension = 1536
)

// RedisClient is the subset of *goredis.Client used by Store, narrowed so
// tests can substitute a mock.
type RedisClient interface {
	HSet(ctx context.Context, key string, values ...any) *goredis.IntCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
	Do(ctx context.Context, args ...any) *goredis.Cmd
	Close() error
}

// Store persists documents as Redis hashes and searches them through a
// RediSearch HNSW vector index.
type Store struct {
	addr      string
	index     string
	prefix    string
	dimension int
	client    RedisClient
}

// Option configures a Store.
type Option func(*Store)

// WithIndex overrides the RediSearch index name (default "idx:documents").
func WithIndex(index string) Option {
	return func(s *Store) { s.index = index }
}

// WithPrefix overrides the key prefix used for document hashes (default "doc:").
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithDimension overrides the embedding vector length (default 1536).
func WithDimension(dim int) Option {
	return func(s *Store) { s.dimension = dim }
}

// WithClient substitutes the Redis client, primarily for testing.
func WithClient(client RedisClient) Option {
	return func(s *Store) { s.client = client }
}

// New builds a Store against a Redis server at addr.
func New(addr string, opts ...Option) *Store {
	s := &Store{
		addr:      addr,
		index:     defaultIndex,
		prefix:    defaultPrefix,
		dimension: defaultDimension,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = goredis.NewClient(&goredis.Options{Addr: addr})
	}
	return s
}

// NewFromConfig builds a Store from provider configuration. cfg.BaseURL is
// the Redis address; cfg.Options may carry "index", "prefix", "dimension".
func NewFromConfig(cfg config.ProviderConfig) (*Store, error) {
	var opts []Option
	if v, ok := config.GetOption[string](cfg, "index"); ok && v != "" {
		opts = append(opts, WithIndex(v))
	}
	if v, ok := config.GetOption[string](cfg, "prefix"); ok && v != "" {
		opts = append(opts, WithPrefix(v))
	}
	if v, ok := config.GetOption[float64](cfg, "dimension"); ok && v > 0 {
		opts = append(opts, WithDimension(int(v)))
	}
	return New(cfg.BaseURL, opts...), nil
}

func init() {
	vectorstore.Register("redis", func(cfg config.ProviderConfig) (vectorstore.VectorStore, error) {
		return NewFromConfig(cfg)
	})
}

// EnsureIndex creates the RediSearch HNSW vector index if it does not
// already exist. "Index already exists" errors are silenced.
func (s *Store) EnsureIndex(ctx context.Context) error {
	args := []any{
		"FT.CREATE", s.index, "ON", "HASH", "PREFIX", 1, s.prefix,
		"SCHEMA",
		"content", "TEXT",
		"embedding", "VECTOR", "HNSW", 6,
		"TYPE", "FLOAT32", "DIM", s.dimension, "DISTANCE_METRIC", "COSINE",
	}
	err := s.client.Do(ctx, args...).Err()
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return nil
	}
	return fmt.Errorf("vectorstore/redis: %w", err)
}

// Add upserts docs with their embeddings as Redis hashes.
func (s *Store) Add(ctx context.Context, docs []schema.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("vectorstore/redis: docs length (%d) does not match embeddings length (%d)", len(docs), len(embeddings))
	}

	for i, doc := range docs {
		key := s.prefix + doc.ID
		values := []any{"content", doc.Content, "embedding", float32ToBytes(embeddings[i])}
		for k, v := range doc.Metadata {
			values = append(values, k, fmt.Sprintf("%v", v))
		}
		if err := s.client.HSet(ctx, key, values...).Err(); err != nil {
			return fmt.Errorf("vectorstore/redis: hset: %w", err)
		}
	}
	return nil
}

// Search runs a RediSearch KNN query against the embedding field and
// returns up to k matches, ranked by similarity.
func (s *Store) Search(ctx context.Context, query []float32, k int, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	cfg := &vectorstore.SearchConfig{Strategy: vectorstore.Cosine}
	for _, opt := range opts {
		opt(cfg)
	}

	filterExpr := "*"
	if len(cfg.Filter) > 0 {
		clauses := make([]string, 0, len(cfg.Filter))
		for key, val := range cfg.Filter {
			clauses = append(clauses, fmt.Sprintf("@%s:{%v}", key, val))
		}
		filterExpr = strings.Join(clauses, " ")
	}

	queryStr := fmt.Sprintf("(%s)=>[KNN %d @embedding $vec AS score]", filterExpr, k)

	args := []any{
		"FT.SEARCH", s.index, queryStr,
		"PARAMS", 2, "vec", string(float32ToBytes(query)),
		"SORTBY", "score",
		"LIMIT", 0, k,
		"DIALECT", 2,
	}

	cmd := s.client.Do(ctx, args...)
	if err := cmd.Err(); err != nil {
		return nil, fmt.Errorf("vectorstore/redis: search: %w", err)
	}
	return parseFTSearchResult(cmd, s.prefix, cfg.Threshold)
}

// Delete removes documents by ID. Unknown IDs are ignored.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.prefix + id
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("vectorstore/redis: del: %w", err)
	}
	return nil
}

// parseFTSearchResult decodes an FT.SEARCH reply shaped as
// [total, key1, [field, value, ...], key2, [field, value, ...], ...].
// RediSearch reports distance, so score is stored as 1 - distance.
func parseFTSearchResult(cmd *goredis.Cmd, prefix string, threshold float64) ([]schema.Document, error) {
	val, err := cmd.Result()
	if err != nil {
		return nil, fmt.Errorf("vectorstore/redis: %w", err)
	}

	arr, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("vectorstore/redis: unexpected FT.SEARCH result format")
	}
	if len(arr) == 0 {
		return nil, nil
	}

	total, ok := arr[0].(int64)
	if !ok {
		return nil, fmt.Errorf("vectorstore/redis: unexpected total format")
	}
	if total == 0 {
		return nil, nil
	}

	var docs []schema.Document
	for i := 1; i+1 < len(arr); i += 2 {
		key, ok := arr[i].(string)
		if !ok {
			continue
		}
		fields, ok := arr[i+1].([]any)
		if !ok {
			continue
		}

		doc := schema.Document{ID: strings.TrimPrefix(key, prefix)}
		meta := map[string]any{}

		for j := 0; j+1 < len(fields); j += 2 {
			name, ok := fields[j].(string)
			if !ok {
				continue
			}
			raw := fields[j+1]

			switch name {
			case "content":
				if v, ok := raw.(string); ok {
					doc.Content = v
				}
			case "embedding":
				// binary payload, not surfaced on the document
			case "score":
				var distance float64
				switch v := raw.(type) {
				case string:
					f, err := strconv.ParseFloat(v, 64)
					if err != nil {
						continue
					}
					distance = f
				case float64:
					distance = v
				default:
					continue
				}
				doc.Score = 1.0 - distance
			default:
				if v, ok := raw.(string); ok {
					meta[name] = v
				}
			}
		}

		if len(meta) > 0 {
			doc.Metadata = meta
		}
		if threshold != 0 && doc.Score < threshold {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// float32ToBytes packs a vector as little-endian FLOAT32 bytes, the wire
// format RediSearch expects for KNN query parameters.
func float32ToBytes(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
