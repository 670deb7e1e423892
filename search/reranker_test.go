package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNoopReranker_TruncatesAndPreservesOrder(t *testing.T) {
	docs := []RankedDoc{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	scored, err := NoopReranker{}.Rerank(context.Background(), "q", docs, 2)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if len(scored) != 2 {
		t.Fatalf("len(scored) = %d, want 2", len(scored))
	}
	if scored[0].ID != "a" || scored[1].ID != "b" {
		t.Errorf("unexpected order: %+v", scored)
	}
	if scored[0].Score <= scored[1].Score {
		t.Errorf("expected descending scores, got %+v", scored)
	}
}

func TestCrossEncoderReranker_ScoresAndSorts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Documents) != 2 {
			t.Fatalf("len(Documents) = %d, want 2", len(req.Documents))
		}
		json.NewEncoder(w).Encode(rerankResponse{Scores: []float64{0.1, 0.9}})
	}))
	defer srv.Close()

	reranker := NewCrossEncoderReranker(srv.URL)
	docs := []RankedDoc{{ID: "first", Text: "a"}, {ID: "second", Text: "b"}}

	scored, err := reranker.Rerank(context.Background(), "query", docs, 5)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if len(scored) != 2 {
		t.Fatalf("len(scored) = %d, want 2", len(scored))
	}
	if scored[0].ID != "second" || scored[0].Score != 0.9 {
		t.Errorf("expected second ranked first, got %+v", scored)
	}
}

func TestCrossEncoderReranker_TruncatesToK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(rerankResponse{Scores: []float64{0.5, 0.9, 0.1}})
	}))
	defer srv.Close()

	reranker := NewCrossEncoderReranker(srv.URL)
	docs := []RankedDoc{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	scored, err := reranker.Rerank(context.Background(), "q", docs, 1)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if len(scored) != 1 || scored[0].ID != "b" {
		t.Errorf("expected top-1 b, got %+v", scored)
	}
}
