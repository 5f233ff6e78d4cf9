package analysis

import (
	"context"
	"testing"
	"time"
)

func TestNewGeminiClient_RequiresAPIKey(t *testing.T) {
	c, err := NewGeminiClient(context.Background(), GeminiConfig{Model: "gemini-2.0-flash"})
	if err == nil {
		t.Fatal("expected error for empty API key")
	}
	if c != nil {
		t.Errorf("expected nil client, got %+v", c)
	}
}

func TestNewGeminiClient_Defaults(t *testing.T) {
	c, err := NewGeminiClient(context.Background(), GeminiConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.client == nil {
		t.Fatal("expected underlying genai client")
	}
	if c.model != "gemini-2.0-flash" {
		t.Errorf("expected default model, got %q", c.model)
	}
	if c.timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", c.timeout)
	}
}

func TestNewGeminiClient_Overrides(t *testing.T) {
	c, err := NewGeminiClient(context.Background(), GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-1.5-pro",
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.model != "gemini-1.5-pro" || c.timeout != 5*time.Second {
		t.Errorf("overrides not applied: model=%q timeout=%v", c.model, c.timeout)
	}

	var _ Completer = c
}
