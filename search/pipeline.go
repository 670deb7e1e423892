package search

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lookatitude/skill-engine/cache"
	"github.com/lookatitude/skill-engine/rag/embedding"
	"github.com/lookatitude/skill-engine/rag/vectorstore"
	"github.com/lookatitude/skill-engine/schema"
	"github.com/lookatitude/skill-engine/skill"
)

// Pipeline orchestrates embedding, vector-store storage, optional BM25
// hybrid search, and optional reranking into one query surface.
type Pipeline struct {
	embedder embedding.Embedder
	store    vectorstore.VectorStore
	bm25     *BM25Index
	reranker Reranker
	queryCache *cache.SemanticCache

	firstStageK int
	rrfConstant int

	mu sync.Mutex
}

// Config configures a Pipeline at construction.
type Config struct {
	Embedder     embedding.Embedder
	Store        vectorstore.VectorStore
	BM25         *BM25Index // nil disables hybrid search
	Reranker     Reranker   // nil disables reranking
	FirstStageK  int        // 0 uses 2*top_k per query
	RRFConstant  int        // 0 uses DefaultRRFConstant

	// QueryCache, when set, short-circuits Query for a repeated query whose
	// embedding is identical to a cached one (the cache matches exactly, not
	// by similarity) instead of re-running dense/BM25/RRF fusion and
	// reranking.
	QueryCache *cache.SemanticCache
}

// New builds a Pipeline. Embedder and Store are required; BM25 and
// Reranker are optional per the contract.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Embedder == nil || cfg.Store == nil {
		return nil, fmt.Errorf("search: Embedder and Store are required")
	}
	return &Pipeline{
		embedder:    cfg.Embedder,
		store:       cfg.Store,
		bm25:        cfg.BM25,
		reranker:    cfg.Reranker,
		queryCache: cfg.QueryCache,
		firstStageK: cfg.FirstStageK,
		rrfConstant: cfg.RRFConstant,
	}, nil
}

// IndexStats reports the outcome of an Index call.
type IndexStats struct {
	Indexed int
}

// Index embeds and upserts a batch of IndexDocuments, preserving order,
// and (if hybrid is enabled) adds each to the BM25 index. Duplicates by
// id replace existing entries in both stores.
func (p *Pipeline) Index(ctx context.Context, docs []skill.IndexDocument) (IndexStats, error) {
	if len(docs) == 0 {
		return IndexStats{}, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return IndexStats{}, fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return IndexStats{}, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	schemaDocs := make([]schema.Document, len(docs))
	for i, d := range docs {
		schemaDocs[i] = schema.Document{ID: d.ID, Content: d.Content, Metadata: d.Metadata}
	}
	if err := p.store.Add(ctx, schemaDocs, vectors); err != nil {
		return IndexStats{}, fmt.Errorf("upsert vector store: %w", err)
	}

	if p.bm25 != nil {
		for _, d := range docs {
			if err := p.bm25.AddDocument(ctx, d.ID, d.Content); err != nil {
				return IndexStats{}, fmt.Errorf("add to bm25: %w", err)
			}
		}
	}

	return IndexStats{Indexed: len(docs)}, nil
}

// QueryOptions configures one Query call.
type QueryOptions struct {
	TopK   int
	Filter map[string]any
}

// Query runs the full query pipeline: normalize, embed, fetch candidates,
// optionally fuse dense+BM25 via RRF, optionally rerank, and return
// results sorted by final score.
func (p *Pipeline) Query(ctx context.Context, query string, opts QueryOptions) ([]skill.SearchResult, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}
	firstStageK := p.firstStageK
	if firstStageK < 2*topK {
		firstStageK = 2 * topK
	}

	normalized := Normalize(query)

	vec, err := p.embedder.EmbedSingle(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	if p.queryCache != nil {
		if cached, ok, err := p.queryCache.GetSemantic(ctx, vec, 0); err == nil && ok {
			if results, ok := cached.([]skill.SearchResult); ok {
				return results, nil
			}
		}
	}

	var storeOpts []vectorstore.SearchOption
	if opts.Filter != nil {
		storeOpts = append(storeOpts, vectorstore.WithFilter(opts.Filter))
	}
	denseDocs, err := p.store.Search(ctx, vec, firstStageK, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("dense search: %w", err)
	}

	var fused []Fused
	byID := make(map[string]schema.Document, len(denseDocs))
	for _, d := range denseDocs {
		byID[d.ID] = d
	}

	if p.bm25 != nil {
		sparseHits, err := p.bm25.Search(ctx, normalized, firstStageK)
		if err != nil {
			return nil, fmt.Errorf("bm25 search: %w", err)
		}
		denseRanked := make([]RankedID, len(denseDocs))
		for i, d := range denseDocs {
			denseRanked[i] = RankedID{ID: d.ID, Score: d.Score}
		}
		k := p.rrfConstant
		if k <= 0 {
			k = DefaultRRFConstant
		}
		fused = FuseRRF(k, denseRanked, sparseHits)
	} else {
		fused = make([]Fused, len(denseDocs))
		for i, d := range denseDocs {
			fused[i] = Fused{ID: d.ID, Score: d.Score}
		}
	}

	var results []skill.SearchResult
	if p.reranker != nil {
		rankedDocs := make([]RankedDoc, 0, len(fused))
		for _, f := range fused {
			if d, ok := byID[f.ID]; ok {
				rankedDocs = append(rankedDocs, RankedDoc{ID: f.ID, Text: d.Content})
			}
		}
		scored, err := p.reranker.Rerank(ctx, normalized, rankedDocs, topK)
		if err != nil {
			return nil, fmt.Errorf("rerank: %w", err)
		}
		for _, s := range scored {
			d := byID[s.ID]
			score := s.Score
			results = append(results, skill.SearchResult{
				ID:         s.ID,
				Content:    d.Content,
				DenseScore: d.Score,
				Metadata:   d.Metadata,
				RerankScore: &score,
			})
		}
		p.cacheResults(ctx, vec, results)
		return results, nil
	}

	if len(fused) > topK {
		fused = fused[:topK]
	}
	for _, f := range fused {
		d := byID[f.ID]
		results = append(results, skill.SearchResult{
			ID:         f.ID,
			Content:    d.Content,
			DenseScore: f.Score,
			Metadata:   d.Metadata,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].DenseScore > results[j].DenseScore })
	p.cacheResults(ctx, vec, results)
	return results, nil
}

// cacheResults stores results under the query embedding when a QueryCache
// is configured. Failures are non-fatal: a cold cache just misses next time.
func (p *Pipeline) cacheResults(ctx context.Context, vec []float32, results []skill.SearchResult) {
	if p.queryCache == nil {
		return
	}
	_ = p.queryCache.SetSemantic(ctx, vec, results)
}
