// Package config provides configuration loading and management for Briefwork.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/briefwork/llm"
	"github.com/c360studio/briefwork/llm/providers"
	"github.com/c360studio/briefwork/storage"
)

// Config represents the complete Briefwork configuration
type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Workshop WorkshopConfig `yaml:"workshop"`
}

// LLMConfig configures the default model provider. A session's own LLM
// settings take precedence once it has an API key.
type LLMConfig struct {
	// Provider is one of openai, anthropic, ollama, mock
	Provider string `yaml:"provider" validate:"required,oneof=openai anthropic ollama mock"`
	// Model overrides the provider's default model
	Model string `yaml:"model"`
	// APIKey is the provider credential; empty selects the offline mock
	APIKey string `yaml:"apiKey"`
	// BaseURL overrides the provider endpoint (OpenRouter, local Ollama, mock-llm)
	BaseURL string `yaml:"baseURL" validate:"omitempty,url"`
	// Timeout bounds a single HTTP call to the provider
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
	// MaxAttempts is the total number of calls per request, including the first
	MaxAttempts int `yaml:"maxAttempts" validate:"gte=1,lte=10"`
	// BackoffBase is the delay before the first retry; it doubles per retry
	BackoffBase time.Duration `yaml:"backoffBase" validate:"gte=0"`
	// MockLatency is the simulated response time of the mock provider
	MockLatency time.Duration `yaml:"mockLatency" validate:"gte=0"`
}

// StorageConfig configures session persistence
type StorageConfig struct {
	// Backend is file, memory, nats, redis or postgres. Empty picks nats when
	// a NATS URL is configured and file otherwise.
	Backend string `yaml:"backend" validate:"omitempty,oneof=file memory nats redis postgres"`
	// Dir is the file backend directory (default ~/.local/share/briefwork/sessions)
	Dir string `yaml:"dir"`
	// Bucket is the JetStream KV bucket name
	Bucket      string `yaml:"bucket"`
	NATSURL     string `yaml:"natsURL" validate:"required_if=Backend nats"`
	RedisURL    string `yaml:"redisURL" validate:"required_if=Backend redis"`
	DatabaseURL string `yaml:"databaseURL" validate:"required_if=Backend postgres"`
	// Debounce is the quiet period before an auto-save
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

// ServerConfig configures the extraction backend
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// WorkshopConfig holds product settings for the session flow
type WorkshopConfig struct {
	// SkipOptionalPhases makes "next phase" jump over the sticky-note and
	// spot-exercise phases (nil = false)
	SkipOptionalPhases *bool `yaml:"skipOptionalPhases,omitempty"`
}

// SkipOptional reports the effective skip setting.
func (w WorkshopConfig) SkipOptional() bool {
	return w.SkipOptionalPhases != nil && *w.SkipOptionalPhases
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    string(llm.ProviderOpenAI),
			Timeout:     2 * time.Minute,
			MaxAttempts: 3,
			BackoffBase: time.Second,
			MockLatency: providers.DefaultMockLatency,
		},
		Storage: StorageConfig{
			Backend:  "", // Auto-detect
			Bucket:   storage.DefaultBucket,
			Debounce: storage.DefaultDebounce,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// fieldMessage renders a validation failure with the dotted YAML path.
func fieldMessage(fe validator.FieldError) string {
	path := yamlPath(fe.StructNamespace())
	switch fe.Tag() {
	case "required", "required_if":
		return path + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", path, fe.Param())
	case "url":
		return path + " must be a URL"
	default:
		return fmt.Sprintf("%s failed %s=%s", path, fe.Tag(), fe.Param())
	}
}

// yamlNames maps struct namespaces to YAML keys for error messages.
var yamlNames = map[string]string{
	"Config.LLM.Provider":        "llm.provider",
	"Config.LLM.BaseURL":         "llm.baseURL",
	"Config.LLM.Timeout":         "llm.timeout",
	"Config.LLM.MaxAttempts":     "llm.maxAttempts",
	"Config.LLM.BackoffBase":     "llm.backoffBase",
	"Config.LLM.MockLatency":     "llm.mockLatency",
	"Config.Storage.Backend":     "storage.backend",
	"Config.Storage.NATSURL":     "storage.natsURL",
	"Config.Storage.RedisURL":    "storage.redisURL",
	"Config.Storage.DatabaseURL": "storage.databaseURL",
	"Config.Storage.Debounce":    "storage.debounce",
	"Config.Server.Addr":         "server.addr",
}

func yamlPath(ns string) string {
	if name, ok := yamlNames[ns]; ok {
		return name
	}
	return strings.ToLower(strings.TrimPrefix(ns, "Config."))
}

// ClientConfig returns the LLM client settings.
func (c LLMConfig) ClientConfig() llm.Config {
	return llm.Config{
		Provider: llm.ProviderName(c.Provider),
		APIKey:   c.APIKey,
		Model:    c.Model,
		BaseURL:  c.BaseURL,
	}
}

// RetryConfig returns the retry policy.
func (c LLMConfig) RetryConfig() llm.RetryConfig {
	rc := llm.DefaultRetryConfig()
	rc.MaxAttempts = c.MaxAttempts
	if c.BackoffBase > 0 {
		rc.BackoffBase = c.BackoffBase
	}
	return rc
}

// ResolveBackend fills an empty backend: nats when a NATS URL is set, file
// otherwise.
func (s *StorageConfig) ResolveBackend() {
	if s.Backend != "" {
		return
	}
	if s.NATSURL != "" {
		s.Backend = storage.BackendNATS
	} else {
		s.Backend = storage.BackendFile
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may hold an API key.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// LLM
	if other.LLM.Provider != "" {
		c.LLM.Provider = other.LLM.Provider
	}
	if other.LLM.Model != "" {
		c.LLM.Model = other.LLM.Model
	}
	if other.LLM.APIKey != "" {
		c.LLM.APIKey = other.LLM.APIKey
	}
	if other.LLM.BaseURL != "" {
		c.LLM.BaseURL = other.LLM.BaseURL
	}
	if other.LLM.Timeout != 0 {
		c.LLM.Timeout = other.LLM.Timeout
	}
	if other.LLM.MaxAttempts != 0 {
		c.LLM.MaxAttempts = other.LLM.MaxAttempts
	}
	if other.LLM.BackoffBase != 0 {
		c.LLM.BackoffBase = other.LLM.BackoffBase
	}
	if other.LLM.MockLatency != 0 {
		c.LLM.MockLatency = other.LLM.MockLatency
	}

	// Storage
	if other.Storage.Backend != "" {
		c.Storage.Backend = other.Storage.Backend
	}
	if other.Storage.Dir != "" {
		c.Storage.Dir = other.Storage.Dir
	}
	if other.Storage.Bucket != "" {
		c.Storage.Bucket = other.Storage.Bucket
	}
	if other.Storage.NATSURL != "" {
		c.Storage.NATSURL = other.Storage.NATSURL
	}
	if other.Storage.RedisURL != "" {
		c.Storage.RedisURL = other.Storage.RedisURL
	}
	if other.Storage.DatabaseURL != "" {
		c.Storage.DatabaseURL = other.Storage.DatabaseURL
	}
	if other.Storage.Debounce != 0 {
		c.Storage.Debounce = other.Storage.Debounce
	}

	// Server
	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}

	// Workshop
	if other.Workshop.SkipOptionalPhases != nil {
		skip := *other.Workshop.SkipOptionalPhases
		c.Workshop.SkipOptionalPhases = &skip
	}
}
