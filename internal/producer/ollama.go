package producer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultOllamaURL = "http://localhost:11434"

// OllamaProducer generates text through a local Ollama HTTP endpoint.
type OllamaProducer struct {
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
}

// NewOllamaProducer creates an Ollama adapter.
func NewOllamaProducer(cfg Config) *OllamaProducer {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	model := cfg.Model
	if model == "" {
		model = "llama3"
	}
	return &OllamaProducer{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: cfg.Temperature,
		client:      httpClient,
	}
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Generate sends a non-streaming generate request and returns the response
// text.
func (p *OllamaProducer) Generate(ctx context.Context, req Request) (string, error) {
	payload := ollamaRequest{
		Model:  p.model,
		Prompt: buildPrompt(req),
		System: req.SystemPersona,
		Stream: false,
	}
	if p.temperature > 0 {
		payload.Options = map[string]any{"temperature": p.temperature}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama call failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, truncateBody(data))
	}

	var out ollamaResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decoding ollama response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama error: %s", out.Error)
	}
	return strings.TrimSpace(out.Response), nil
}

// buildPrompt joins instructions and context into the single prompt string
// completion-style endpoints expect.
func buildPrompt(req Request) string {
	if req.Context == "" {
		return req.Instructions
	}
	return req.Context + "\n\n" + req.Instructions
}

func truncateBody(data []byte) string {
	const max = 512
	s := string(data)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
