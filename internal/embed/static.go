package embed

import (
	"context"
	"hash/fnv"
	"math"
)

// Static is a deterministic embedder for tests. It derives a unit-length
// vector from an FNV hash of the input, so identical text always maps to a
// bit-identical vector and distinct texts are very unlikely to collide.
//
// Static never fails and requires no network access.
type Static struct {
	dim int
}

// NewStatic creates a Static embedder producing vectors of the given
// dimension. Dimension defaults to 8 when non-positive, which keeps test
// fixtures readable.
func NewStatic(dim int) *Static {
	if dim <= 0 {
		dim = 8
	}
	return &Static{dim: dim}
}

// Embed returns a deterministic unit vector for text.
func (s *Static) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, s.dim)

	// Seed a simple xorshift generator from the text hash so every
	// component is determined by the input alone.
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	state := h.Sum64() | 1

	var norm float64
	for i := range vec {
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		// Map to [-1, 1).
		v := float64(int64(state)) / float64(math.MaxInt64)
		vec[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// Dimension returns the configured vector dimension.
func (s *Static) Dimension() int { return s.dim }

// Model identifies the fake backend in logs.
func (s *Static) Model() string { return "static-test-embedder" }
