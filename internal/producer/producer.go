// Package producer contains the content-producer adapters. The coordinator
// treats a producer as an opaque function from (role, instructions, context)
// to text; everything transport-specific lives here.
package producer

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Request carries everything a producer needs for one generation call.
type Request struct {
	Role          string // Specialist role issuing the call (e.g., "strategist")
	Instructions  string // Task-specific assignment
	Context       string // Assembled dependency/engagement context
	SystemPersona string // Role persona used as the system prompt
}

// Producer generates text for a role given instructions and context.
// Implementations must be safe for concurrent use; independent calls carry
// no ordering guarantee and must be idempotent-safe to retry.
type Producer interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Config defines the configuration for a producer adapter.
type Config struct {
	Type        string  // "ollama", "openai", or "mock"
	BaseURL     string  // Endpoint base URL (adapter-specific default if empty)
	Model       string  // Model name passed through to the endpoint
	APIKeyEnv   string  // Environment variable holding the API key (openai)
	Temperature float64
}

// New creates a producer based on the provided configuration. The factory
// switches on cfg.Type and returns the appropriate adapter.
func New(cfg Config) (Producer, error) {
	switch cfg.Type {
	case "ollama":
		return NewOllamaProducer(cfg), nil
	case "openai":
		return NewOpenAIProducer(cfg)
	case "mock":
		return NewMockProducer(), nil
	default:
		return nil, fmt.Errorf("unknown producer type: %s", cfg.Type)
	}
}

// httpClient is shared by the HTTP adapters. Per-call deadlines come from
// the caller's context; the client timeout is only a safety net.
var httpClient = &http.Client{Timeout: 5 * time.Minute}
