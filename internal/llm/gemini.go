// Package llm implements text generation backed by the Gemini API.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/studyowl/studyowl/internal/digest"
)

// Gemini generates completions via the Gemini API and satisfies
// digest.Completer.
type Gemini struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewGemini creates a Gemini completer for the given model.
func NewGemini(client *genai.Client, model string, logger *slog.Logger) (*Gemini, error) {
	if client == nil {
		return nil, fmt.Errorf("genai client is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gemini{client: client, model: model, logger: logger}, nil
}

// Complete sends the prompt and returns the generated text.
func (g *Gemini) Complete(ctx context.Context, prompt digest.PromptMessages) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt.User), cfg)
	if err != nil {
		return "", fmt.Errorf("generating content with %s: %w", g.model, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("model %s returned an empty response", g.model)
	}

	g.logger.Debug("completion generated", "model", g.model, "response_len", len(text))
	return text, nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string { return g.model }
