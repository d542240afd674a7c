package observability

import (
	"context"
	"testing"

	"github.com/studyowl/studyowl/internal/log"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{}, log.NewNop())
	if err != nil {
		t.Fatalf("Setup with empty endpoint: %v", err)
	}
	if shutdown == nil {
		t.Fatal("Setup returned nil shutdown")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("no-op shutdown: %v", err)
	}
}

func TestSetup_WithEndpoint(t *testing.T) {
	// The OTLP HTTP exporter connects lazily, so setup and a flush of zero
	// spans need no collector.
	cfg := Config{
		Endpoint:    "localhost:4318",
		Environment: "test",
		ServiceName: "studyowl-test",
		Version:     "0.0.0",
	}

	shutdown, err := Setup(context.Background(), cfg, log.NewNop())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown with no recorded spans: %v", err)
	}
}
