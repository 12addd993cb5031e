package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ragagent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model.Name)
	assert.Equal(t, 60*time.Second, cfg.Model.Timeout)
	assert.Equal(t, "sk-env", cfg.Model.APIKey)
	assert.Equal(t, 4, cfg.VectorStore.K)
	assert.Equal(t, "rag_documents", cfg.VectorStore.Collection)
	assert.Equal(t, "memory", cfg.Store.Kind)
	assert.Equal(t, 3, cfg.Agent.MaxRounds)
	assert.Equal(t, 1000, cfg.Ingest.ChunkSize)
	assert.Equal(t, 200, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
model:
  provider: ollama
  name: llama3
  base_url: http://localhost:11434
  timeout: 90s
vector_store:
  kind: chroma
  url: http://localhost:8000
  k: 6
store:
  kind: redis
  ttl: 24h
agent:
  max_rounds: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Model.Provider)
	assert.Equal(t, "llama3", cfg.Model.Name)
	assert.Equal(t, 90*time.Second, cfg.Model.Timeout)
	assert.Equal(t, "chroma", cfg.VectorStore.Kind)
	assert.Equal(t, 6, cfg.VectorStore.K)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTL)
	assert.Equal(t, 5, cfg.Agent.MaxRounds)
	assert.False(t, cfg.NeedsAPIKey())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "agent:\n  max_rounds: 5\n")
	t.Setenv("RAGAGENT_AGENT_MAX_ROUNDS", "7")
	t.Setenv("RAGAGENT_MODEL_API_KEY", "sk-file")
	t.Setenv("OPENAI_API_KEY", "sk-fallback")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Agent.MaxRounds)
	assert.Equal(t, "sk-file", cfg.Model.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "model: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"provider", func(c *Config) { c.Model.Provider = "magic" }, "unknown model provider"},
		{"vector store", func(c *Config) { c.VectorStore.Kind = "faiss" }, "unknown vector store"},
		{"k", func(c *Config) { c.VectorStore.K = 0 }, "vector_store.k"},
		{"store", func(c *Config) { c.Store.Kind = "etcd" }, "unknown conversation store"},
		{"rounds", func(c *Config) { c.Agent.MaxRounds = 0 }, "agent.max_rounds"},
		{"chunking", func(c *Config) { c.Ingest.ChunkOverlap = c.Ingest.ChunkSize }, "chunk_size"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "unknown log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
