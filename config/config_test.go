package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/c360studio/briefwork/llm"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LLM.Provider != "openai" {
		t.Errorf("expected default provider openai, got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.MaxAttempts != 3 {
		t.Errorf("expected 3 attempts, got %d", cfg.LLM.MaxAttempts)
	}
	if cfg.LLM.BackoffBase != time.Second {
		t.Errorf("expected 1s backoff base, got %v", cfg.LLM.BackoffBase)
	}
	if cfg.Storage.Debounce != 500*time.Millisecond {
		t.Errorf("expected 500ms debounce, got %v", cfg.Storage.Debounce)
	}
	if cfg.Storage.Backend != "" {
		t.Errorf("expected auto-detected backend, got %s", cfg.Storage.Backend)
	}
	if cfg.Workshop.SkipOptional() {
		t.Error("expected optional phases to be visited by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:    "unknown provider",
			modify:  func(c *Config) { c.LLM.Provider = "gemini" },
			wantErr: "llm.provider must be one of",
		},
		{
			name:    "missing provider",
			modify:  func(c *Config) { c.LLM.Provider = "" },
			wantErr: "llm.provider is required",
		},
		{
			name:    "bad base url",
			modify:  func(c *Config) { c.LLM.BaseURL = "not a url" },
			wantErr: "llm.baseURL must be a URL",
		},
		{
			name:    "zero attempts",
			modify:  func(c *Config) { c.LLM.MaxAttempts = 0 },
			wantErr: "llm.maxAttempts",
		},
		{
			name:    "unknown backend",
			modify:  func(c *Config) { c.Storage.Backend = "s3" },
			wantErr: "storage.backend must be one of",
		},
		{
			name:    "redis without url",
			modify:  func(c *Config) { c.Storage.Backend = "redis" },
			wantErr: "storage.redisURL is required",
		},
		{
			name:    "postgres without url",
			modify:  func(c *Config) { c.Storage.Backend = "postgres" },
			wantErr: "storage.databaseURL is required",
		},
		{
			name: "nats with url",
			modify: func(c *Config) {
				c.Storage.Backend = "nats"
				c.Storage.NATSURL = "nats://localhost:4222"
			},
		},
		{
			name:    "negative debounce",
			modify:  func(c *Config) { c.Storage.Debounce = -time.Second },
			wantErr: "storage.debounce",
		},
		{
			name:    "missing server addr",
			modify:  func(c *Config) { c.Server.Addr = "" },
			wantErr: "server.addr is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
llm:
  provider: anthropic
  model: "claude-test"
  timeout: 45s
  maxAttempts: 5
storage:
  backend: redis
  redisURL: "redis://localhost:6379/1"
  debounce: 250ms
server:
  addr: "127.0.0.1:9000"
workshop:
  skipOptionalPhases: true
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.LLM.Provider != "anthropic" {
		t.Errorf("expected provider anthropic, got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "claude-test" {
		t.Errorf("expected model claude-test, got %s", cfg.LLM.Model)
	}
	if cfg.LLM.Timeout != 45*time.Second {
		t.Errorf("expected timeout 45s, got %v", cfg.LLM.Timeout)
	}
	if cfg.LLM.MaxAttempts != 5 {
		t.Errorf("expected 5 attempts, got %d", cfg.LLM.MaxAttempts)
	}
	if cfg.Storage.Backend != "redis" || cfg.Storage.RedisURL != "redis://localhost:6379/1" {
		t.Errorf("unexpected storage config %+v", cfg.Storage)
	}
	if cfg.Storage.Debounce != 250*time.Millisecond {
		t.Errorf("expected debounce 250ms, got %v", cfg.Storage.Debounce)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("expected addr 127.0.0.1:9000, got %s", cfg.Server.Addr)
	}
	if !cfg.Workshop.SkipOptional() {
		t.Error("expected skipOptionalPhases true")
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("llm: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	skip := true
	override := &Config{
		LLM: LLMConfig{
			Model: "override-model",
		},
		Storage: StorageConfig{
			Backend: "memory",
		},
		Workshop: WorkshopConfig{SkipOptionalPhases: &skip},
	}

	base.Merge(override)

	if base.LLM.Model != "override-model" {
		t.Errorf("expected model override-model, got %s", base.LLM.Model)
	}
	// Provider should remain from base since override didn't set it
	if base.LLM.Provider != "openai" {
		t.Errorf("expected provider to remain default, got %s", base.LLM.Provider)
	}
	if base.Storage.Backend != "memory" {
		t.Errorf("expected backend memory, got %s", base.Storage.Backend)
	}
	if base.Storage.Bucket != "BRIEFWORK_SESSIONS" {
		t.Errorf("expected bucket to remain default, got %s", base.Storage.Bucket)
	}
	if !base.Workshop.SkipOptional() {
		t.Error("expected skip setting to be overridden to true")
	}

	// The merged pointer is a copy.
	skip = false
	if !base.Workshop.SkipOptional() {
		t.Error("merge should not alias the override's pointer")
	}

	base.Merge(nil)
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.Model = "saved-model"
	cfg.LLM.APIKey = "sk-secret"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created owner-only
	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("config file was not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected mode 0600, got %o", perm)
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.LLM.Model != "saved-model" {
		t.Errorf("expected model saved-model, got %s", loaded.LLM.Model)
	}
	if loaded.Storage.Debounce != cfg.Storage.Debounce {
		t.Errorf("expected debounce %v to round-trip, got %v", cfg.Storage.Debounce, loaded.Storage.Debounce)
	}
}

func TestLLMConfigConversions(t *testing.T) {
	cfg := DefaultConfig().LLM
	cfg.Provider = "ollama"
	cfg.BaseURL = "http://gpu-box:11434/v1"
	cfg.MaxAttempts = 4
	cfg.BackoffBase = 10 * time.Millisecond

	cc := cfg.ClientConfig()
	if cc.Provider != llm.ProviderOllama || cc.BaseURL != "http://gpu-box:11434/v1" {
		t.Errorf("unexpected client config %+v", cc)
	}

	rc := cfg.RetryConfig()
	if rc.MaxAttempts != 4 || rc.BackoffBase != 10*time.Millisecond || rc.BackoffMultiplier != 2 {
		t.Errorf("unexpected retry config %+v", rc)
	}
}

func TestResolveBackend(t *testing.T) {
	tests := []struct {
		name string
		in   StorageConfig
		want string
	}{
		{"explicit wins", StorageConfig{Backend: "redis", NATSURL: "nats://x"}, "redis"},
		{"nats url", StorageConfig{NATSURL: "nats://x"}, "nats"},
		{"nothing configured", StorageConfig{}, "file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.in
			s.ResolveBackend()
			if s.Backend != tt.want {
				t.Errorf("ResolveBackend() = %s, want %s", s.Backend, tt.want)
			}
		})
	}
}
