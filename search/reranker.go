package search

import (
	"context"
	"sort"

	"github.com/lookatitude/skill-engine/internal/httpclient"
)

// RankedDoc pairs an id with the text a reranker should score.
type RankedDoc struct {
	ID   string
	Text string
}

// Scored is one reranked document.
type Scored struct {
	ID    string
	Score float64
}

// Reranker re-scores fused candidates against the query, independently
// per document (a cross-encoder contract), returning the top k by
// descending score.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []RankedDoc, k int) ([]Scored, error)
}

// NoopReranker passes fused candidates through unchanged, truncated to k,
// for deployments with no reranker provider configured.
type NoopReranker struct{}

func (NoopReranker) Rerank(ctx context.Context, query string, docs []RankedDoc, k int) ([]Scored, error) {
	out := make([]Scored, 0, min(k, len(docs)))
	for i, d := range docs {
		if i >= k {
			break
		}
		out = append(out, Scored{ID: d.ID, Score: float64(len(docs) - i)})
	}
	return out, nil
}

// CrossEncoderReranker calls an HTTP cross-encoder endpoint that scores
// (query, document) pairs independently, matching the contract's
// "each doc re-scored independently" rule.
type CrossEncoderReranker struct {
	client *httpclient.Client
}

// NewCrossEncoderReranker builds a reranker against baseURL, expecting a
// POST /rerank endpoint accepting {"query":"...","documents":["..."]} and
// returning {"scores":[...]} in input order.
func NewCrossEncoderReranker(baseURL string, opts ...httpclient.Option) *CrossEncoderReranker {
	allOpts := append([]httpclient.Option{httpclient.WithBaseURL(baseURL)}, opts...)
	return &CrossEncoderReranker{client: httpclient.New(allOpts...)}
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponse struct {
	Scores []float64 `json:"scores"`
}

func (r *CrossEncoderReranker) Rerank(ctx context.Context, query string, docs []RankedDoc, k int) ([]Scored, error) {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	resp, err := httpclient.DoJSON[rerankResponse](ctx, r.client, "POST", "/rerank", rerankRequest{Query: query, Documents: texts})
	if err != nil {
		return nil, err
	}

	scored := make([]Scored, 0, len(docs))
	for i, d := range docs {
		s := 0.0
		if i < len(resp.Scores) {
			s = resp.Scores[i]
		}
		scored = append(scored, Scored{ID: d.ID, Score: s})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}
