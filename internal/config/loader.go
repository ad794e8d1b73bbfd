package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global config,
// defaults. Missing files are not errors; malformed JSON returns an error.
func Load(globalPath, projectPath string) (*Config, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	return cfg, nil
}

// LoadDefault loads configuration from conventional paths.
// Global: ~/.consilium/config.json
// Project: .consilium/config.json (relative to cwd)
func LoadDefault() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}

	globalPath := filepath.Join(homeDir, ".consilium", "config.json")
	projectPath := filepath.Join(".consilium", "config.json")

	return Load(globalPath, projectPath)
}

// mergeConfigFile reads a JSON config file and merges it into the base
// config. Missing files are silently skipped.
func mergeConfigFile(base *Config, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if loaded.DefaultProducer != "" {
		base.DefaultProducer = loaded.DefaultProducer
	}

	for key, p := range loaded.Producers {
		base.Producers[key] = p
	}

	for key, agent := range loaded.Agents {
		base.Agents[key] = agent
	}

	if loaded.Coordination.MaxRounds > 0 {
		base.Coordination.MaxRounds = loaded.Coordination.MaxRounds
	}
	if loaded.Coordination.Concurrency > 0 {
		base.Coordination.Concurrency = loaded.Coordination.Concurrency
	}
	if loaded.Coordination.CallTimeoutSeconds > 0 {
		base.Coordination.CallTimeoutSeconds = loaded.Coordination.CallTimeoutSeconds
	}
	if loaded.Coordination.ContextExcerptChars > 0 {
		base.Coordination.ContextExcerptChars = loaded.Coordination.ContextExcerptChars
	}
	if loaded.Coordination.ReviewPreviewChars > 0 {
		base.Coordination.ReviewPreviewChars = loaded.Coordination.ReviewPreviewChars
	}

	return nil
}
