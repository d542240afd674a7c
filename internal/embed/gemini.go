package embed

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Gemini embeds text via the Gemini embedding API.
//
// The genai client is created once at process start and reused for every
// call; inference is a pure function of the input, so Gemini is safe for
// concurrent use without locking.
type Gemini struct {
	client *genai.Client
	model  string
	dim    int32
}

// NewGemini creates a Gemini embedder backed by an existing genai client.
// dim selects the output dimensionality; it must match the vector column
// width of the content store.
func NewGemini(client *genai.Client, model string, dim int) (*Gemini, error) {
	if client == nil {
		return nil, fmt.Errorf("genai client is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	return &Gemini{client: client, model: model, dim: int32(dim)}, nil
}

// Embed generates an embedding for text. The empty string is a valid input
// and maps to the model's default embedding for empty content.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	dim := g.dim
	resp, err := g.client.Models.EmbedContent(ctx, g.model,
		genai.Text(text),
		&genai.EmbedContentConfig{OutputDimensionality: &dim},
	)
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}

	vec := resp.Embeddings[0].Values
	if len(vec) != int(g.dim) {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), g.dim)
	}
	return vec, nil
}

// Dimension returns the configured output dimensionality.
func (g *Gemini) Dimension() int { return int(g.dim) }

// Model returns the embedding model identifier.
func (g *Gemini) Model() string { return g.model }
