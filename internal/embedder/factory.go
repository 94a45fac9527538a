package embedder

import (
	"fmt"
	"strings"
)

// Config selects and configures a provider. Values come from the caller's
// configuration file; nothing here reads the process environment.
type Config struct {
	Provider  string
	BaseURL   string
	APIKey    string
	Model     string
	CacheSize int
}

// New builds an embedder from explicit configuration. An empty provider
// defaults to ollama, matching the tool's local-first posture.
func New(cfg Config) (Embedder, error) {
	cache := NewCache(cfg.CacheSize)

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case "", ProviderOllama:
		return NewOllamaProvider(cfg.BaseURL, cfg.Model, cache), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, cache)
	case ProviderLocal:
		return NewLocalProvider(cache), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}
