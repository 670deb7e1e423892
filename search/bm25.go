// Package search orchestrates embedding, storage, retrieval, and reranking
// for semantic tool discovery: a BM25 sparse index, Reciprocal Rank Fusion
// with the dense side, query normalization, and an optional reranker.
package search

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// BM25Index is a token-based sparse index over tool documentation.
type BM25Index struct {
	mu    sync.Mutex
	index bleve.Index
}

type bm25Doc struct {
	Content string `json:"content"`
}

// NewBM25Index builds an in-memory BM25 index (bleve's default scoring is
// BM25-derived TF-IDF, matching the contract's token-based sparse index).
func NewBM25Index() (*BM25Index, error) {
	mapping := bleve.NewIndexMapping()
	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("create bm25 index: %w", err)
	}
	return &BM25Index{index: idx}, nil
}

// AddDocument indexes id → text, replacing any prior document with the
// same id. Indexing operations take the exclusive write lock, per the
// concurrency model's "indexing takes an exclusive write lock on the BM25
// index" rule.
func (b *BM25Index) AddDocument(ctx context.Context, id, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Index(id, bm25Doc{Content: text})
}

// Delete removes id from the index if present.
func (b *BM25Index) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Delete(id)
}

// RankedID is one hit from a sparse or dense search, by id with its score,
// used as FuseRRF's common input shape; its rank is its position in the list.
type RankedID struct {
	ID    string
	Score float64
}

// Search runs a bleve query string against the index and returns up to k
// (id, score) hits sorted by descending score.
func (b *BM25Index) Search(ctx context.Context, query string, k int) ([]RankedID, error) {
	q := bleve.NewQueryStringQuery(query)
	req := bleve.NewSearchRequestOptions(q, k, 0, false)

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bm25 search: %w", err)
	}

	hits := make([]RankedID, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, RankedID{ID: h.ID, Score: h.Score})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

// Close releases the underlying bleve index.
func (b *BM25Index) Close() error {
	return b.index.Close()
}
