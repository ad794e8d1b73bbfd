package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	cfg := DefaultConfig()
	cfg.DefaultProducer = "ollama"
	cfg.Agents["strategist"] = AgentConfig{Producer: "openai", SystemPrompt: "custom"}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v, want nil", err)
	}

	loaded, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProducer != "ollama" {
		t.Errorf("DefaultProducer = %q, want %q", loaded.DefaultProducer, "ollama")
	}
	agent, ok := loaded.Agents["strategist"]
	if !ok || agent.SystemPrompt != "custom" {
		t.Errorf("Agents[strategist] = %+v, want the saved override", agent)
	}
}

func TestSaveFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file mode checks are not meaningful on windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	if err := Save(DefaultConfig(), path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %o, want 0600", perm)
	}
}
