package config

// DefaultConfig returns the default configuration: an offline mock producer
// plus ready-to-enable local and cloud endpoints, and the standard
// coordination limits.
func DefaultConfig() *Config {
	return &Config{
		DefaultProducer: "mock",
		Producers: map[string]ProducerConfig{
			"mock": {
				Type: "mock",
			},
			"ollama": {
				Type:      "ollama",
				BaseURL:   "http://localhost:11434",
				Model:     "llama3",
				Resilient: true,
			},
			"openai": {
				Type:      "openai",
				Model:     "gpt-4o-mini",
				APIKeyEnv: "OPENAI_API_KEY",
				Resilient: true,
			},
		},
		Agents: map[string]AgentConfig{},
		Coordination: CoordinationConfig{
			MaxRounds:           10,
			Concurrency:         4,
			CallTimeoutSeconds:  120,
			ContextExcerptChars: 1500,
			ReviewPreviewChars:  2000,
		},
	}
}
