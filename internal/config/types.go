package config

// ProducerConfig defines a content-producer endpoint. Producers are separate
// from agents -- multiple agent roles can share one producer.
type ProducerConfig struct {
	Type        string  `json:"type"`                  // "ollama", "openai", or "mock"
	BaseURL     string  `json:"base_url,omitempty"`    // Endpoint base URL (adapter default if empty)
	Model       string  `json:"model,omitempty"`       // Model name passed through to the endpoint
	APIKeyEnv   string  `json:"api_key_env,omitempty"` // Env var holding the API key (openai)
	Temperature float64 `json:"temperature,omitempty"`
	Resilient   bool    `json:"resilient,omitempty"` // Wrap with retry + circuit breaker
}

// AgentConfig defines a specialist role that uses a specific producer.
type AgentConfig struct {
	Producer     string `json:"producer"`                // Key into Producers map
	Model        string `json:"model,omitempty"`         // Model override for this role
	SystemPrompt string `json:"system_prompt,omitempty"` // Overrides the built-in persona
}

// CoordinationConfig tunes the workflow execution loop.
type CoordinationConfig struct {
	MaxRounds           int `json:"max_rounds,omitempty"`            // Round budget per workflow run
	Concurrency         int `json:"concurrency,omitempty"`           // Max concurrent producer calls
	CallTimeoutSeconds  int `json:"call_timeout_seconds,omitempty"`  // Per-call timeout
	ContextExcerptChars int `json:"context_excerpt_chars,omitempty"` // Max chars per dependency excerpt
	ReviewPreviewChars  int `json:"review_preview_chars,omitempty"`  // Max chars of output in a review prompt
}

// Config is the top-level configuration.
type Config struct {
	DefaultProducer string                    `json:"default_producer"` // Producer used by roles without an agent entry
	Producers       map[string]ProducerConfig `json:"producers"`
	Agents          map[string]AgentConfig    `json:"agents"`
	Coordination    CoordinationConfig        `json:"coordination"`
}
