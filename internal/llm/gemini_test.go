package llm

import (
	"testing"

	"google.golang.org/genai"

	"github.com/studyowl/studyowl/internal/log"
)

func TestNewGemini_Validation(t *testing.T) {
	if _, err := NewGemini(nil, "gemini-2.5-flash", log.NewNop()); err == nil {
		t.Error("nil client accepted")
	}
	if _, err := NewGemini(&genai.Client{}, "", log.NewNop()); err == nil {
		t.Error("empty model accepted")
	}

	g, err := NewGemini(&genai.Client{}, "gemini-2.5-flash", nil)
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	if g.Model() != "gemini-2.5-flash" {
		t.Errorf("Model() = %q", g.Model())
	}
}
