// Package embed provides text embedding generation for the learning coach.
//
// The Embedder interface is the single seam between retrieval and the
// embedding backend: production wires the Gemini implementation, tests wire
// the deterministic Static implementation.
package embed

import "context"

// Embedder generates vector embeddings for text.
//
// Implementations must be safe for concurrent use and must return vectors of
// a constant dimension for every input, including the empty string. Calling
// Embed twice with identical text yields numerically identical output for a
// fixed model configuration.
type Embedder interface {
	// Embed returns a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the dimensionality of the output vectors.
	Dimension() int

	// Model returns the model identifier used by this embedder.
	Model() string
}
