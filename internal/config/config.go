// Package config loads the application configuration from YAML, applying
// defaults for anything left unset.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	Provider  string `yaml:"provider"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
	CacheSize int    `yaml:"cache_size"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	Type   string       `yaml:"type"`
	Path   string       `yaml:"path"`
	Qdrant QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig contains connection details for a Qdrant backend.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LLMConfig configures answer generation.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// IngestConfig configures document chunking and embedding batches.
type IngestConfig struct {
	MaxChunkChars int `yaml:"max_chunk_chars"`
	BatchSize     int `yaml:"batch_size"`
	Concurrency   int `yaml:"concurrency"`
}

// DistillConfig configures the distillation pipeline.
type DistillConfig struct {
	ContextBudget  int     `yaml:"context_budget"`
	TopK           int     `yaml:"top_k"`
	DedupThreshold float64 `yaml:"dedup_threshold"`
}

// Config is the root application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Embedder EmbedderConfig `yaml:"embedder"`
	LLM      LLMConfig      `yaml:"llm"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Distill  DistillConfig  `yaml:"distill"`
}

// Default values used when the file or a field is absent.
const (
	DefaultStorePath      = "ghost.db"
	DefaultContextBudget  = 3000
	DefaultTopK           = 20
	DefaultDedupThreshold = 0.85
)

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Store.Type == "" {
		cfg.Store.Type = "sqlite"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath
	}
	if cfg.Embedder.Provider == "" {
		cfg.Embedder.Provider = "ollama"
	}
	if cfg.Distill.ContextBudget == 0 {
		cfg.Distill.ContextBudget = DefaultContextBudget
	}
	if cfg.Distill.TopK == 0 {
		cfg.Distill.TopK = DefaultTopK
	}
	if cfg.Distill.DedupThreshold == 0 {
		cfg.Distill.DedupThreshold = DefaultDedupThreshold
	}
}

// APIKey resolves the embedder API key from the configured environment
// variable, if any.
func (e EmbedderConfig) APIKey() string {
	if e.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(e.APIKeyEnv)
}

// QdrantTimeout converts the configured seconds to a duration.
func (q QdrantConfig) QdrantTimeout() time.Duration {
	return time.Duration(q.TimeoutSecs) * time.Second
}

// Validate rejects out-of-range values after defaulting.
func (c *Config) Validate() error {
	if c.Distill.ContextBudget <= 0 {
		return fmt.Errorf("distill.context_budget must be positive, got %d", c.Distill.ContextBudget)
	}
	if c.Distill.TopK <= 0 {
		return fmt.Errorf("distill.top_k must be positive, got %d", c.Distill.TopK)
	}
	if c.Distill.DedupThreshold <= 0 || c.Distill.DedupThreshold > 1 {
		return fmt.Errorf("distill.dedup_threshold must be in (0, 1], got %g", c.Distill.DedupThreshold)
	}
	if c.Ingest.MaxChunkChars < 0 {
		return fmt.Errorf("ingest.max_chunk_chars must not be negative, got %d", c.Ingest.MaxChunkChars)
	}
	return nil
}

// Load reads a config file. A missing file yields defaults rather than an
// error; a present but invalid file is fatal.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./ghost.yaml first, then ~/.config/ghost/config.yaml,
// falling back to built-in defaults.
func LoadDefault() (*Config, error) {
	if _, err := os.Stat("ghost.yaml"); err == nil {
		return Load("ghost.yaml")
	}
	home, err := os.UserHomeDir()
	if err == nil {
		userPath := filepath.Join(home, ".config", "ghost", "config.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return Load(userPath)
		}
	}
	return defaultConfig(), nil
}

// Save writes the config as YAML, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
