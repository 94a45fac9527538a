package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Type)
	assert.Equal(t, DefaultStorePath, cfg.Store.Path)
	assert.Equal(t, "ollama", cfg.Embedder.Provider)
	assert.Equal(t, DefaultContextBudget, cfg.Distill.ContextBudget)
	assert.Equal(t, DefaultTopK, cfg.Distill.TopK)
	assert.InDelta(t, DefaultDedupThreshold, cfg.Distill.DedupThreshold, 1e-9)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghost.yaml")
	content := `
store:
  type: qdrant
  qdrant:
    url: http://localhost:6333
    collection: notes
embedder:
  provider: openai
  api_key_env: TEST_OPENAI_KEY
distill:
  context_budget: 500
  top_k: 5
  dedup_threshold: 0.9
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("TEST_OPENAI_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "qdrant", cfg.Store.Type)
	assert.Equal(t, "http://localhost:6333", cfg.Store.Qdrant.URL)
	assert.Equal(t, "notes", cfg.Store.Qdrant.Collection)
	assert.Equal(t, "openai", cfg.Embedder.Provider)
	assert.Equal(t, "sk-test", cfg.Embedder.APIKey())
	assert.Equal(t, 500, cfg.Distill.ContextBudget)
	assert.Equal(t, 5, cfg.Distill.TopK)
	assert.InDelta(t, 0.9, cfg.Distill.DedupThreshold, 1e-9)
}

func TestLoadInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("distill:\n  top_k: -3\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "top_k")
}

func TestLoadInvalidThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("distill:\n  dedup_threshold: 1.5\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [unbalanced"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ghost.yaml")
	cfg := defaultConfig()
	cfg.Store.Path = "/data/ghost.db"

	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/ghost.db", loaded.Store.Path)
	assert.Equal(t, cfg.Distill, loaded.Distill)
}
