// Package pgvector implements vectorstore.VectorStore on top of PostgreSQL's
// pgvector extension, using pgx as the driver.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lookatitude/skill-engine/config"
	"github.com/lookatitude/skill-engine/rag/vectorstore"
	"github.com/lookatitude/skill-engine/schema"
)

const (
	defaultTable     = "documents"
	defaultDimension = 1536
)

// Pool is the subset of pgxpool.Pool used by Store, narrowed so tests can
// substitute a mock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store persists documents in a pgvector-enabled PostgreSQL table.
type Store struct {
	pool      Pool
	table     string
	dimension int
}

// Option configures a Store.
type Option func(*Store)

// WithTable overrides the table name (default "documents").
func WithTable(table string) Option {
	return func(s *Store) { s.table = table }
}

// WithDimension overrides the vector dimension used for the column type
// (default 1536).
func WithDimension(dim int) Option {
	return func(s *Store) { s.dimension = dim }
}

// New builds a Store against an existing pool.
func New(pool Pool, opts ...Option) *Store {
	s := &Store{pool: pool, table: defaultTable, dimension: defaultDimension}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig opens a connection pool from cfg.BaseURL (the Postgres
// connection string) and builds a Store.
func NewFromConfig(cfg config.ProviderConfig) (*Store, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("vectorstore/pgvector: base_url (connection string) is required")
	}

	pool, err := pgxpool.New(context.Background(), cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("vectorstore/pgvector: connect: %w", err)
	}

	dim := defaultDimension
	if v, ok := config.GetOption[float64](cfg, "dimension"); ok && v > 0 {
		dim = int(v)
	}
	table := defaultTable
	if v, ok := config.GetOption[string](cfg, "table"); ok && v != "" {
		table = v
	}

	return New(pool, WithTable(table), WithDimension(dim)), nil
}

func init() {
	vectorstore.Register("pgvector", func(cfg config.ProviderConfig) (vectorstore.VectorStore, error) {
		return NewFromConfig(cfg)
	})
}

// EnsureTable creates the pgvector extension and backing table if absent.
func (s *Store) EnsureTable(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("vectorstore/pgvector: create extension: %w", err)
	}

	ddl := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, embedding vector(%d), content TEXT, metadata JSONB)",
		s.table, s.dimension,
	)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("vectorstore/pgvector: create table: %w", err)
	}
	return nil
}

// Add upserts docs with their embeddings.
func (s *Store) Add(ctx context.Context, docs []schema.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("vectorstore/pgvector: docs length (%d) does not match embeddings length (%d)", len(docs), len(embeddings))
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (id, embedding, content, metadata) VALUES ($1, $2, $3, $4) "+
			"ON CONFLICT (id) DO UPDATE SET embedding = $2, content = $3, metadata = $4",
		s.table,
	)

	for i, doc := range docs {
		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("vectorstore/pgvector: marshal metadata: %w", err)
		}
		if _, err := s.pool.Exec(ctx, sql, doc.ID, vectorLiteral(embeddings[i]), doc.Content, meta); err != nil {
			return fmt.Errorf("vectorstore/pgvector: %w", err)
		}
	}
	return nil
}

// Search ranks stored documents against query using the configured
// distance operator and returns up to k matches.
func (s *Store) Search(ctx context.Context, query []float32, k int, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	cfg := &vectorstore.SearchConfig{Strategy: vectorstore.Cosine}
	for _, opt := range opts {
		opt(cfg)
	}

	op := distanceOperator(cfg.Strategy)
	sql := fmt.Sprintf(
		"SELECT id, content, metadata, (embedding %s $1) AS score FROM %s",
		op, s.table,
	)
	args := []any{vectorLiteral(query), k}

	if len(cfg.Filter) > 0 {
		var clauses []string
		for key, val := range cfg.Filter {
			args = append(args, key, val)
			clauses = append(clauses, fmt.Sprintf("metadata->>$%d = $%d", len(args)-1, len(args)))
		}
		sql += " WHERE " + strings.Join(clauses, " AND ")
	}

	sql += " ORDER BY score DESC LIMIT $2"

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("vectorstore/pgvector: %w", err)
	}
	defer rows.Close()

	var results []schema.Document
	for rows.Next() {
		var (
			id, content string
			metaRaw     []byte
			score       float64
		)
		if err := rows.Scan(&id, &content, &metaRaw, &score); err != nil {
			return nil, fmt.Errorf("vectorstore/pgvector: scan: %w", err)
		}

		if cfg.Threshold != 0 && score < cfg.Threshold {
			continue
		}

		var meta map[string]any
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &meta); err != nil {
				return nil, fmt.Errorf("vectorstore/pgvector: unmarshal metadata: %w", err)
			}
		}

		results = append(results, schema.Document{
			ID:       id,
			Content:  content,
			Metadata: meta,
			Score:    score,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vectorstore/pgvector: %w", err)
	}
	return results, nil
}

// Delete removes documents by ID.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", s.table, strings.Join(placeholders, ", "))
	if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("vectorstore/pgvector: %w", err)
	}
	return nil
}

// distanceOperator maps a SearchStrategy to pgvector's operator syntax.
func distanceOperator(strategy vectorstore.SearchStrategy) string {
	switch strategy {
	case vectorstore.DotProduct:
		return "<#>"
	case vectorstore.Euclidean:
		return "<->"
	default:
		return "<=>"
	}
}

// vectorLiteral formats a []float32 as a pgvector literal, e.g. "[1,2,3]".
func vectorLiteral(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = fmt.Sprintf("%g", f)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
