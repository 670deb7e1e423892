package search

import "sort"

// DefaultRRFConstant is the k in RRF's score(d) = Σ 1/(k + rank_i(d)).
const DefaultRRFConstant = 60

// Fused is one document's fused rank across result lists.
type Fused struct {
	ID    string
	Score float64
}

// FuseRRF combines ranked result lists (dense, sparse, ...) via
// Reciprocal Rank Fusion. A document missing from a list contributes 0 to
// that list's term (equivalent to treating its rank there as infinity).
// Ties are broken by the order ids first appear across the input lists,
// so fusion is deterministic given deterministic inputs.
func FuseRRF(k int, lists ...[]RankedID) []Fused {
	if k <= 0 {
		k = DefaultRRFConstant
	}

	scores := make(map[string]float64)
	var order []string
	seen := make(map[string]bool)

	for _, list := range lists {
		for rank, item := range list {
			scores[item.ID] += 1.0 / float64(k+rank+1)
			if !seen[item.ID] {
				seen[item.ID] = true
				order = append(order, item.ID)
			}
		}
	}

	fused := make([]Fused, 0, len(order))
	for _, id := range order {
		fused = append(fused, Fused{ID: id, Score: scores[id]})
	}

	firstIndex := make(map[string]int, len(order))
	for i, id := range order {
		firstIndex[id] = i
	}
	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return firstIndex[fused[i].ID] < firstIndex[fused[j].ID]
	})
	return fused
}
