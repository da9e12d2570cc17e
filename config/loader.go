package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/c360studio/briefwork/llm"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "briefwork.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/briefwork"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
	// EnvFile is loaded from the working directory before reading the environment
	EnvFile = ".env"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger   *slog.Logger
	userPath string
	workDir  string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithUserConfigPath overrides ~/.config/briefwork/config.yaml.
func WithUserConfigPath(path string) LoaderOption {
	return func(l *Loader) {
		l.userPath = path
	}
}

// WithWorkDir sets where the project config search and .env lookup start.
func WithWorkDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.workDir = dir
	}
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	if l.userPath == "" {
		l.userPath = defaultUserConfigPath()
	}
	if l.workDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			l.workDir = cwd
		}
	}
	return l
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/briefwork/config.yaml)
// 3. Project config (briefwork.yaml in current or parent directories)
// 4. .env in the working directory (never overrides the real environment)
// 5. Environment variables
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// Load user config
	if l.userPath != "" {
		if userConfig, err := LoadFromFile(l.userPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", l.userPath))
			config.Merge(userConfig)
		} else if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("Failed to load user config", slog.String("path", l.userPath), slog.String("error", err.Error()))
		}
	}

	// Load project config
	projectConfigPath := l.findProjectConfig()
	if projectConfigPath != "" {
		if projectConfig, err := LoadFromFile(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	envPath := filepath.Join(l.workDir, EnvFile)
	if err := godotenv.Load(envPath); err == nil {
		l.logger.Debug("Loaded env file", slog.String("path", envPath))
	}

	l.applyEnv(config)
	config.Storage.ResolveBackend()

	// Validate final config
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnv overlays environment variables. Provider-specific keys fill the
// API key only when nothing more specific set it.
func (l *Loader) applyEnv(c *Config) {
	setString(&c.LLM.Provider, "BRIEFWORK_LLM_PROVIDER")
	setString(&c.LLM.Model, "BRIEFWORK_LLM_MODEL")
	setString(&c.LLM.APIKey, "BRIEFWORK_LLM_API_KEY")
	setString(&c.LLM.BaseURL, "BRIEFWORK_LLM_BASE_URL")
	l.setDuration(&c.LLM.Timeout, "BRIEFWORK_LLM_TIMEOUT")
	l.setInt(&c.LLM.MaxAttempts, "BRIEFWORK_LLM_MAX_ATTEMPTS")
	l.setDuration(&c.LLM.MockLatency, "BRIEFWORK_LLM_MOCK_LATENCY")

	if c.LLM.APIKey == "" {
		switch llm.ProviderName(c.LLM.Provider) {
		case llm.ProviderOpenAI:
			setString(&c.LLM.APIKey, "OPENAI_API_KEY")
		case llm.ProviderAnthropic:
			setString(&c.LLM.APIKey, "ANTHROPIC_API_KEY")
		}
	}

	setString(&c.Storage.Backend, "BRIEFWORK_STORAGE_BACKEND")
	setString(&c.Storage.Dir, "BRIEFWORK_STORAGE_DIR")
	setString(&c.Storage.NATSURL, "NATS_URL")
	setString(&c.Storage.RedisURL, "REDIS_URL")
	setString(&c.Storage.DatabaseURL, "DATABASE_URL")
	l.setDuration(&c.Storage.Debounce, "BRIEFWORK_STORAGE_DEBOUNCE")

	setString(&c.Server.Addr, "BRIEFWORK_SERVER_ADDR")

	if v := os.Getenv("BRIEFWORK_SKIP_OPTIONAL_PHASES"); v != "" {
		if skip, err := strconv.ParseBool(v); err == nil {
			c.Workshop.SkipOptionalPhases = &skip
		} else {
			l.logger.Warn("Ignoring invalid boolean", slog.String("env", "BRIEFWORK_SKIP_OPTIONAL_PHASES"), slog.String("value", v))
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (l *Loader) setDuration(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.logger.Warn("Ignoring invalid duration", slog.String("env", key), slog.String("value", v))
		return
	}
	*dst = d
}

func (l *Loader) setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.logger.Warn("Ignoring invalid integer", slog.String("env", key), slog.String("value", v))
		return
	}
	*dst = n
}

// UserConfigPath returns the user config file the loader reads.
func (l *Loader) UserConfigPath() string {
	return l.userPath
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	// Check if it already exists
	if _, err := os.Stat(l.userPath); err == nil {
		return nil // Already exists
	}

	// Create default config
	config := DefaultConfig()
	if err := config.SaveToFile(l.userPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", l.userPath))
	return nil
}

// defaultUserConfigPath returns the path to the user config file
func defaultUserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for briefwork.yaml in the work dir and its parents
func (l *Loader) findProjectConfig() string {
	if l.workDir == "" {
		return ""
	}

	dir := l.workDir
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}
