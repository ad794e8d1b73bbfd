package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, name string, cfg *Config) string {
	t.Helper()
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshaling test config: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name            string
		globalConfig    *Config
		projectConfig   *Config
		expectProducers int
		expectDefault   string
		checkAgent      string
		expectAgentProd string
		expectRounds    int
	}{
		{
			name:            "No config files - returns defaults",
			expectProducers: 3,
			expectDefault:   "mock",
			expectRounds:    10,
		},
		{
			name: "Global only - adds an agent",
			globalConfig: &Config{
				Agents: map[string]AgentConfig{
					"strategist": {Producer: "ollama"},
				},
			},
			expectProducers: 3,
			expectDefault:   "mock",
			checkAgent:      "strategist",
			expectAgentProd: "ollama",
			expectRounds:    10,
		},
		{
			name: "Project only - overrides default producer and rounds",
			projectConfig: &Config{
				DefaultProducer: "ollama",
				Coordination:    CoordinationConfig{MaxRounds: 3},
			},
			expectProducers: 3,
			expectDefault:   "ollama",
			expectRounds:    3,
		},
		{
			name: "Project overrides global",
			globalConfig: &Config{
				Agents: map[string]AgentConfig{
					"strategist": {Producer: "ollama"},
				},
				Coordination: CoordinationConfig{MaxRounds: 5},
			},
			projectConfig: &Config{
				Agents: map[string]AgentConfig{
					"strategist": {Producer: "openai"},
				},
			},
			expectProducers: 3,
			expectDefault:   "mock",
			checkAgent:      "strategist",
			expectAgentProd: "openai",
			expectRounds:    5,
		},
		{
			name: "Producer entries merge over defaults",
			globalConfig: &Config{
				Producers: map[string]ProducerConfig{
					"local": {Type: "ollama", BaseURL: "http://gpu-box:11434"},
				},
			},
			expectProducers: 4,
			expectDefault:   "mock",
			expectRounds:    10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()

			globalPath, projectPath := "", ""
			if tt.globalConfig != nil {
				globalPath = writeConfig(t, dir, "global.json", tt.globalConfig)
			}
			if tt.projectConfig != nil {
				projectPath = writeConfig(t, dir, "project.json", tt.projectConfig)
			}

			cfg, err := Load(globalPath, projectPath)
			if err != nil {
				t.Fatalf("Load() error = %v, want nil", err)
			}

			if len(cfg.Producers) != tt.expectProducers {
				t.Errorf("Producers = %d, want %d", len(cfg.Producers), tt.expectProducers)
			}
			if cfg.DefaultProducer != tt.expectDefault {
				t.Errorf("DefaultProducer = %q, want %q", cfg.DefaultProducer, tt.expectDefault)
			}
			if cfg.Coordination.MaxRounds != tt.expectRounds {
				t.Errorf("MaxRounds = %d, want %d", cfg.Coordination.MaxRounds, tt.expectRounds)
			}
			if tt.checkAgent != "" {
				agent, ok := cfg.Agents[tt.checkAgent]
				if !ok {
					t.Fatalf("agent %q missing", tt.checkAgent)
				}
				if agent.Producer != tt.expectAgentProd {
					t.Errorf("agent %q producer = %q, want %q", tt.checkAgent, agent.Producer, tt.expectAgentProd)
				}
			}
		})
	}
}

func TestLoadMissingFilesAreSkipped(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "nope.json"), filepath.Join(dir, "also-nope.json"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for missing files", err)
	}
	if cfg.DefaultProducer != "mock" {
		t.Errorf("DefaultProducer = %q, want defaults", cfg.DefaultProducer)
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	if _, err := Load(path, ""); err == nil {
		t.Error("Load() error = nil for malformed JSON, want error")
	}
}

func TestLoadPartialCoordinationMerge(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "partial.json", &Config{
		Coordination: CoordinationConfig{Concurrency: 8},
	})

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Coordination.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8", cfg.Coordination.Concurrency)
	}
	// Unset fields keep their defaults.
	if cfg.Coordination.MaxRounds != 10 {
		t.Errorf("MaxRounds = %d, want default 10", cfg.Coordination.MaxRounds)
	}
	if cfg.Coordination.CallTimeoutSeconds != 120 {
		t.Errorf("CallTimeoutSeconds = %d, want default 120", cfg.Coordination.CallTimeoutSeconds)
	}
}
