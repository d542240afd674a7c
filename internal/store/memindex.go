package store

import (
	"context"
	"math"
	"sort"
)

// MemIndex is an in-memory nearest-neighbor index over content items. It is
// rebuilt from the full content listing per call path and satisfies the same
// query contract as Store.QueryNearest, so retrieval callers are agnostic to
// which backend serves them. Primarily used in tests and small deployments
// where a database round-trip per query is not worth it.
//
// MemIndex is immutable after construction and safe for concurrent use.
type MemIndex struct {
	items []ContentItem
}

// NewMemIndex builds an index from items. Items without an embedding are
// dropped at construction: they are not eligible for similarity search.
// Input order is preserved and serves as the tie-break order.
func NewMemIndex(items []ContentItem) *MemIndex {
	eligible := make([]ContentItem, 0, len(items))
	for _, item := range items {
		if len(item.Embedding) > 0 {
			eligible = append(eligible, item)
		}
	}
	return &MemIndex{items: eligible}
}

// Len returns the number of eligible (embedded) items in the index.
func (ix *MemIndex) Len() int { return len(ix.items) }

// QueryNearest returns the k items closest to vec under cosine distance,
// ascending, with exact ties broken by insertion order. k <= 0 returns an
// empty result; k larger than the index size returns everything.
func (ix *MemIndex) QueryNearest(_ context.Context, vec []float32, k int) ([]RetrievalResult, error) {
	if k <= 0 || len(ix.items) == 0 {
		return []RetrievalResult{}, nil
	}

	results := make([]RetrievalResult, 0, len(ix.items))
	for _, item := range ix.items {
		results = append(results, RetrievalResult{
			Item:     item,
			Distance: CosineDistance(vec, item.Embedding),
		})
	}

	// Stable sort preserves insertion order for exactly-equal distances.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// CosineDistance computes 1 - cos(a, b), matching pgvector's `<=>` operator:
// 0 = identical direction, 1 = orthogonal, 2 = opposite. Mismatched lengths
// or zero-norm inputs yield the maximum distance so degenerate vectors rank
// last instead of poisoning the ordering.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}

	var dot, na, nb float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		na += av * av
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 2
	}

	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// Clamp rounding drift outside [-1, 1].
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return 1 - cos
}
